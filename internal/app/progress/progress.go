package progress

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"object-whisper/internal/app/transcriber"
)

// phases is the number of phases a successful transcription reports.
const phases = 4

type Config struct {
	Enabled bool
	Writer  io.Writer
}

// Manager renders one bar per object key and advances it as the workflow
// reports phases. It implements transcriber.PhaseListener.
type Manager struct {
	container *mpb.Progress
	enabled   bool

	mu   sync.Mutex
	bars map[string]*phaseBar
}

type phaseBar struct {
	bar *mpb.Bar

	mu    sync.Mutex
	label string
}

func (pb *phaseBar) setLabel(label string) {
	pb.mu.Lock()
	pb.label = label
	pb.mu.Unlock()
}

func (pb *phaseBar) getLabel() string {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	return pb.label
}

func NewManager(config Config) *Manager {
	if !config.Enabled {
		return &Manager{enabled: false}
	}

	writer := config.Writer
	if writer == nil {
		writer = os.Stderr
	}

	return &Manager{
		container: mpb.New(
			mpb.WithOutput(writer),
			mpb.WithRefreshRate(120*time.Millisecond),
			mpb.WithWaitGroup(&sync.WaitGroup{}),
		),
		enabled: true,
		bars:    make(map[string]*phaseBar),
	}
}

func (m *Manager) PhaseStarted(objectKey string, phase transcriber.Phase) {
	if !m.enabled {
		return
	}
	m.barFor(objectKey).setLabel(string(phase))
}

func (m *Manager) PhaseFinished(objectKey string, phase transcriber.Phase, err error) {
	if !m.enabled {
		return
	}
	pb := m.barFor(objectKey)
	if err != nil {
		pb.setLabel(string(phase) + " failed")
		pb.bar.Abort(false)
		return
	}
	if phase == transcriber.PhaseCleanup {
		pb.setLabel("done")
	}
	pb.bar.Increment()
}

// Phase returns the label currently shown for objectKey.
func (m *Manager) Phase(objectKey string) string {
	if !m.enabled {
		return ""
	}
	m.mu.Lock()
	pb, ok := m.bars[objectKey]
	m.mu.Unlock()
	if !ok {
		return ""
	}
	return pb.getLabel()
}

func (m *Manager) barFor(objectKey string) *phaseBar {
	m.mu.Lock()
	defer m.mu.Unlock()

	if pb, ok := m.bars[objectKey]; ok {
		return pb
	}

	pb := &phaseBar{label: "queued"}
	pb.bar = m.container.AddBar(phases,
		mpb.PrependDecorators(
			decor.Name(objectKey+" ", decor.WC{W: len(objectKey) + 1, C: decor.DindentRight}),
			decor.Any(func(decor.Statistics) string { return pb.getLabel() }, decor.WCSyncWidthR),
		),
		mpb.AppendDecorators(
			decor.OnAbort(
				decor.OnComplete(decor.Elapsed(decor.ET_STYLE_GO, decor.WCSyncSpace), " ✓ "),
				" ✗ ",
			),
		),
	)
	m.bars[objectKey] = pb
	return pb
}

// Wait blocks until every bar has completed or aborted.
func (m *Manager) Wait() {
	if m.enabled && m.container != nil {
		m.container.Wait()
	}
}

func (m *Manager) Shutdown() {
	if m.enabled && m.container != nil {
		m.container.Shutdown()
	}
}

func IsTTY(writer io.Writer) bool {
	if writer == nil {
		return false
	}

	if file, ok := writer.(*os.File); ok {
		stat, err := file.Stat()
		if err != nil {
			return false
		}
		return (stat.Mode() & os.ModeCharDevice) != 0
	}
	return false
}

func ShouldShowProgress(forced bool) bool {
	if forced {
		return true
	}

	return IsTTY(os.Stderr)
}

var _ transcriber.PhaseListener = (*Manager)(nil)
