package trainer

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

// Column names in the trainer's per-epoch results table.
const (
	ColEpoch     = "epoch"
	ColPrecision = "metrics/precision(B)"
	ColRecall    = "metrics/recall(B)"
	ColMAP50     = "metrics/mAP50(B)"
	ColMAP50_95  = "metrics/mAP50-95(B)"
)

// CLITrainer runs the ultralytics command line trainer.
type CLITrainer struct {
	Executable string
	Dir        string
	Logger     *log.Logger
}

// NewCLITrainer creates a trainer that invokes executable ("yolo" when empty).
func NewCLITrainer(executable string, logger *log.Logger) *CLITrainer {
	if executable == "" {
		executable = "yolo"
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &CLITrainer{Executable: executable, Logger: logger}
}

// Args builds the command line arguments for a run.
func Args(data DatasetRef, hp Hyperparameters) []string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	args := []string{
		"detect", "train",
		"data=" + data.ConfigPath,
		"model=" + hp.Model,
		"epochs=" + strconv.Itoa(hp.Epochs),
		"imgsz=" + strconv.Itoa(hp.ImageSize),
		"batch=" + strconv.Itoa(hp.Batch),
		"patience=" + strconv.Itoa(hp.Patience),
		"scale=" + f(hp.Scale),
		"mosaic=" + f(hp.Mosaic),
		"mixup=" + f(hp.Mixup),
		"copy_paste=" + f(hp.CopyPaste),
		"name=" + hp.Name,
		"exist_ok=" + strconv.FormatBool(hp.ExistOK),
	}
	if hp.Device != "" {
		args = append(args, "device="+hp.Device)
	}
	if hp.Workers > 0 {
		args = append(args, "workers="+strconv.Itoa(hp.Workers))
	}
	if hp.Project != "" {
		args = append(args, "project="+hp.Project)
	}
	return args
}

// RunDir is where a run writes its results.
func RunDir(hp Hyperparameters) string {
	project := hp.Project
	if project == "" {
		project = filepath.Join("runs", "detect")
	}
	return filepath.Join(project, hp.Name)
}

// Train launches the trainer, streams its output to the logger and reads the
// final metrics once it exits.
func (t *CLITrainer) Train(ctx context.Context, data DatasetRef, hp Hyperparameters) (*Result, error) {
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("invalid dataset reference: %w", err)
	}
	if err := hp.Validate(); err != nil {
		return nil, fmt.Errorf("invalid hyperparameters: %w", err)
	}
	if _, err := os.Stat(data.ConfigPath); err != nil {
		return nil, fmt.Errorf("dataset config: %w", err)
	}

	args := Args(data, hp)
	cmd := exec.CommandContext(ctx, t.Executable, args...)
	cmd.Dir = t.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to attach stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to attach stderr: %w", err)
	}

	t.Logger.Printf("Running %s %s", t.Executable, strings.Join(args, " "))
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start trainer: %w", err)
	}

	var wg sync.WaitGroup
	for _, r := range []io.Reader{stdout, stderr} {
		wg.Add(1)
		go func(r io.Reader) {
			defer wg.Done()
			t.stream(r)
		}(r)
	}
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("training cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("trainer exited with error: %w", err)
	}

	runDir := RunDir(hp)
	if t.Dir != "" && !filepath.IsAbs(runDir) {
		runDir = filepath.Join(t.Dir, runDir)
	}
	return ReadRun(runDir)
}

func (t *CLITrainer) stream(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if line := strings.TrimRight(scanner.Text(), "\r"); line != "" {
			t.Logger.Println(line)
		}
	}
}

// ReadRun loads the final metrics of a finished run directory.
func ReadRun(runDir string) (*Result, error) {
	f, err := os.Open(filepath.Join(runDir, "results.csv"))
	if err != nil {
		return nil, fmt.Errorf("failed to open results: %w", err)
	}
	defer f.Close()

	epochs, m, err := ParseResults(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", f.Name(), err)
	}

	res := &Result{RunDir: runDir, Epochs: epochs, Metrics: m}
	for _, name := range []string{"best.pt", "last.pt"} {
		p := filepath.Join(runDir, "weights", name)
		if _, err := os.Stat(p); err == nil {
			res.Weights = p
			break
		}
	}
	return res, nil
}

// ParseResults reads the per-epoch results table and returns the number of
// epoch rows and the metrics of the last one. Header cells are padded with
// spaces by some trainer versions and are trimmed before matching.
func ParseResults(r io.Reader) (int, Metrics, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return 0, Metrics{}, err
	}
	if len(records) < 2 {
		return 0, Metrics{}, fmt.Errorf("no epochs recorded")
	}

	index := map[string]int{}
	for i, h := range records[0] {
		index[strings.TrimSpace(h)] = i
	}

	var rows [][]string
	for _, rec := range records[1:] {
		if len(rec) == 1 && strings.TrimSpace(rec[0]) == "" {
			continue
		}
		rows = append(rows, rec)
	}
	if len(rows) == 0 {
		return 0, Metrics{}, fmt.Errorf("no epochs recorded")
	}
	last := rows[len(rows)-1]

	value := func(col string) (float64, error) {
		i, ok := index[col]
		if !ok {
			return 0, fmt.Errorf("missing column %q", col)
		}
		if i >= len(last) {
			return 0, fmt.Errorf("short row for column %q", col)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(last[i]), 64)
		if err != nil {
			return 0, fmt.Errorf("column %q: %w", col, err)
		}
		return v, nil
	}

	var m Metrics
	for _, c := range []struct {
		col string
		dst *float64
	}{
		{ColPrecision, &m.Precision},
		{ColRecall, &m.Recall},
		{ColMAP50, &m.MAP50},
		{ColMAP50_95, &m.MAP50_95},
	} {
		v, err := value(c.col)
		if err != nil {
			return 0, Metrics{}, err
		}
		*c.dst = v
	}
	return len(rows), m, nil
}
