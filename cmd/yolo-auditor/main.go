package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	yoloauditor "github.com/menta2k/yolo-auditor"
	"github.com/menta2k/yolo-auditor/internal/config"
	"github.com/menta2k/yolo-auditor/pkg/dataset"
	"github.com/menta2k/yolo-auditor/pkg/report"
	"github.com/menta2k/yolo-auditor/pkg/review"
	"github.com/menta2k/yolo-auditor/pkg/trainer"
	"github.com/menta2k/yolo-auditor/pkg/types"
)

const usage = `usage: %s <command> [flags]

commands:
  check        check images/<split> and labels/<split> exist
  pairs        pair image and label files per split
  summary      summarize annotations per split
  audit        structure check and summaries of every split
  images       find unreadable or undersized images
  spotcheck    draw annotations on a random sample of images
  yaml         write the dataset configuration document
  train        train a detector on the dataset document
  init-config  write a default configuration file
  version      print the version

run "%s <command> -h" for the flags of a command
`

// commonFlags are shared by every dataset command; set values override the config file.
type commonFlags struct {
	configPath string
	root       string
	splits     string
	exts       string
	classes    string
	workers    int
	format     string
	preview    int
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "configuration file (default "+config.GetConfigPath()+" if present)")
	fs.StringVar(&c.root, "root", "", "dataset root directory")
	fs.StringVar(&c.splits, "splits", "", "comma separated split names (default train,val)")
	fs.StringVar(&c.exts, "ext", "", "comma separated image extensions (default .jpg)")
	fs.StringVar(&c.classes, "classes", "", "comma separated class names, index order")
	fs.IntVar(&c.workers, "workers", -1, "label parsing workers, 0 = one per CPU")
	fs.StringVar(&c.format, "format", "", "report format: text|json")
	fs.IntVar(&c.preview, "preview", -1, "max listed mismatches and malformed lines")
}

// load reads the config file (explicit, or the default path when it exists)
// and applies flag overrides.
func (c *commonFlags) load() (*config.Config, error) {
	cfg := config.Default()
	path := c.configPath
	if path == "" {
		if p := config.GetConfigPath(); fileExists(p) {
			path = p
		}
	}
	if path != "" {
		loaded, err := config.LoadFromFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.root != "" {
		cfg.Dataset.Root = c.root
	}
	if c.splits != "" {
		cfg.Dataset.Splits = splitList(c.splits)
	}
	if c.exts != "" {
		cfg.Dataset.ImageExtensions = splitList(c.exts)
	}
	if c.classes != "" {
		cfg.Classes = splitList(c.classes)
	}
	if c.workers >= 0 {
		cfg.Dataset.Workers = c.workers
	}
	if c.format != "" {
		cfg.Report.Format = c.format
	}
	if c.preview >= 0 {
		cfg.Report.PreviewLimit = c.preview
	}
	return cfg, nil
}

func main() {
	log.SetFlags(0)
	prog := filepath.Base(os.Args[0])
	if len(os.Args) < 2 {
		log.Fatalf(usage, prog, prog)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd, args := os.Args[1], os.Args[2:]
	var err error
	switch cmd {
	case "check":
		err = runCheck(args)
	case "pairs":
		err = runPairs(args)
	case "summary", "audit":
		err = runAudit(cmd, args)
	case "images":
		err = runImages(args)
	case "spotcheck":
		err = runSpotCheck(ctx, args)
	case "yaml":
		err = runYAML(args)
	case "train":
		err = runTrain(ctx, args)
	case "init-config":
		err = runInitConfig(args)
	case "version":
		fmt.Println(yoloauditor.GetVersion())
	case "-h", "-help", "--help", "help":
		fmt.Fprintf(os.Stdout, usage, prog, prog)
	default:
		log.Fatalf("unknown command %q\n\n"+usage, cmd, prog, prog)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// newAuditor parses the common flags of a dataset command.
func newAuditor(name string, args []string) (*yoloauditor.Auditor, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	var c commonFlags
	c.register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := c.load()
	if err != nil {
		return nil, err
	}
	return yoloauditor.NewFromConfig(cfg)
}

func runCheck(args []string) error {
	a, err := newAuditor("check", args)
	if err != nil {
		return err
	}
	subpaths, status := a.Structure()
	if a.Config().Report.Format == "json" {
		return report.WriteJSON(os.Stdout, status)
	}
	fmt.Printf("📁 Dataset structure: %s\n", a.Config().Dataset.Root)
	report.WriteStructure(os.Stdout, subpaths, status)
	for _, p := range subpaths {
		if !status[p].Exists {
			return fmt.Errorf("dataset structure is incomplete")
		}
	}
	return nil
}

func runPairs(args []string) error {
	a, err := newAuditor("pairs", args)
	if err != nil {
		return err
	}
	cfg := a.Config()
	pairings := map[string]types.Pairing{}
	for _, split := range cfg.Dataset.Splits {
		pairings[split] = a.Pairs(split)
	}
	if cfg.Report.Format == "json" {
		return report.WriteJSON(os.Stdout, pairings)
	}

	limit := report.PreviewLimit(cfg.Report.PreviewLimit)
	for _, split := range cfg.Dataset.Splits {
		p := pairings[split]
		fmt.Printf("\n%s split:\n", strings.ToUpper(split))
		for _, dir := range p.Missing {
			fmt.Printf("  ❌ missing directory: %s\n", dir)
		}
		fmt.Printf("  Paired: %d\n", len(p.Both))
		imageOnly, labelOnly := dataset.Preview(p, limit)
		fmt.Printf("  Images without labels: %d %v\n", len(p.ImageOnly), imageOnly)
		fmt.Printf("  Labels without images: %d %v\n", len(p.LabelOnly), labelOnly)
	}
	return nil
}

func runAudit(name string, args []string) error {
	a, err := newAuditor(name, args)
	if err != nil {
		return err
	}
	cfg := a.Config()
	r := a.Audit()
	if name == "summary" {
		r.Subpaths = nil
	}
	if cfg.Report.Format == "json" {
		return report.WriteJSON(os.Stdout, r)
	}
	return report.WriteText(os.Stdout, r, cfg.Report.PreviewLimit)
}

func runImages(args []string) error {
	a, err := newAuditor("images", args)
	if err != nil {
		return err
	}
	total := 0
	for _, split := range a.Config().Dataset.Splits {
		problems, err := a.InspectImages(split)
		if err != nil {
			log.Printf("%s: %v", split, err)
			continue
		}
		for _, p := range problems {
			fmt.Printf("❌ %s: %s\n", p.Path, p.Problem)
		}
		total += len(problems)
	}
	if total > 0 {
		return fmt.Errorf("%d problem images", total)
	}
	fmt.Println("✅ all images readable")
	return nil
}

func runSpotCheck(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("spotcheck", flag.ExitOnError)
	var c commonFlags
	c.register(fs)
	var split, outDir, ext, backend, model, url string
	var samples, quality int
	var seed int64
	var crops, reviewOn, clean, testVision bool
	fs.StringVar(&split, "split", "train", "split to sample")
	fs.IntVar(&samples, "n", 0, "number of samples (default from config)")
	fs.Int64Var(&seed, "seed", 0, "sampling seed, 0 = from config")
	fs.StringVar(&outDir, "out", "", "output directory")
	fs.StringVar(&ext, "ext-out", "", "overlay format: png|jpg|webp")
	fs.IntVar(&quality, "quality", 0, "JPEG/WebP overlay quality (1-100)")
	fs.BoolVar(&crops, "crops", false, "also write one crop per annotation")
	fs.BoolVar(&clean, "clean", false, "remove earlier overlays of the split first")
	fs.BoolVar(&reviewOn, "review", false, "ask a vision model to review each overlay")
	fs.BoolVar(&testVision, "test-vision", false, "ask the review model to describe one image before the spot check")
	fs.StringVar(&backend, "backend", "", "review backend: ollama|llamacpp")
	fs.StringVar(&model, "model", "", "review model name")
	fs.StringVar(&url, "url", "", "review server URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := c.load()
	if err != nil {
		return err
	}
	sc := &cfg.SpotCheck
	if samples > 0 {
		sc.Samples = samples
	}
	if seed != 0 {
		sc.Seed = seed
	}
	if outDir != "" {
		sc.OutputDir = outDir
	}
	if ext != "" {
		sc.Format = ext
	}
	if quality > 0 {
		sc.Quality = quality
	}
	if crops {
		sc.Crops = true
	}
	if reviewOn || testVision {
		cfg.Review.Enabled = true
	}
	if backend != "" {
		cfg.Review.Backend = backend
	}
	if model != "" {
		cfg.Review.Model = model
	}
	if url != "" {
		cfg.Review.URL = url
	}

	a, err := yoloauditor.NewFromConfig(cfg)
	if err != nil {
		return err
	}

	var reviewer *review.Reviewer
	if cfg.Review.Enabled {
		vc, err := newVisionClient(cfg.Review.Backend, cfg.Review.URL)
		if err != nil {
			return err
		}
		reviewer = review.NewReviewer(vc)
		log.Printf("reviewing overlays with %s (%s) at %s", cfg.Review.Model, cfg.Review.Backend, cfg.Review.URL)
	}
	if testVision {
		answer, err := a.TestVision(ctx, split, reviewer)
		if err != nil {
			return fmt.Errorf("vision test failed: %w", err)
		}
		log.Printf("vision test answer: %s", answer)
	}

	if clean {
		if err := spotcheckClean(sc.OutputDir, split); err != nil {
			return err
		}
	}

	results, err := a.SpotCheck(ctx, split, reviewer)
	if err != nil {
		return err
	}
	if cfg.Report.Format == "json" {
		return report.WriteJSON(os.Stdout, results)
	}
	return report.WriteSpotCheck(os.Stdout, split, results)
}

func runYAML(args []string) error {
	fs := flag.NewFlagSet("yaml", flag.ExitOnError)
	var c commonFlags
	c.register(fs)
	var out string
	fs.StringVar(&out, "out", "", "output path (default <root>/<training.data_yaml>)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := c.load()
	if err != nil {
		return err
	}
	a, err := yoloauditor.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	if out == "" {
		out = dataYAMLPath(cfg)
	}
	dc, err := a.WriteDataYAML(out)
	if err != nil {
		return err
	}
	fmt.Printf("✅ dataset configuration written: %s (%d classes)\n", out, dc.NC)
	return nil
}

func runTrain(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	var c commonFlags
	c.register(fs)
	var data, model, device, name string
	var epochs, batch, imgsz int
	fs.StringVar(&data, "data", "", "dataset configuration document (default <root>/<training.data_yaml>)")
	fs.StringVar(&model, "model", "", "initial weights")
	fs.StringVar(&device, "device", "", "training device, e.g. cpu or 0")
	fs.StringVar(&name, "name", "", "run name")
	fs.IntVar(&epochs, "epochs", 0, "epochs")
	fs.IntVar(&batch, "batch", 0, "batch size")
	fs.IntVar(&imgsz, "imgsz", 0, "training image size")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := c.load()
	if err != nil {
		return err
	}
	t := &cfg.Training
	if model != "" {
		t.Model = model
	}
	if device != "" {
		t.Device = device
	}
	if name != "" {
		t.Name = name
	}
	if epochs > 0 {
		t.Epochs = epochs
	}
	if batch != 0 {
		t.Batch = batch
	}
	if imgsz > 0 {
		t.ImageSize = imgsz
	}

	a, err := yoloauditor.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	if data == "" {
		data = dataYAMLPath(cfg)
	}

	logger := log.New(os.Stderr, "[train] ", 0)
	tr := trainer.NewCLITrainer(t.Executable, logger)
	log.Printf("🚀 training %s on %s", t.Model, data)
	res, err := a.Train(ctx, tr, data)
	if err != nil {
		return err
	}

	fmt.Printf("✅ training finished after %d epochs\n", res.Epochs)
	fmt.Printf("📁 run directory: %s\n", res.RunDir)
	if res.Weights != "" {
		fmt.Printf("📦 weights: %s\n", res.Weights)
	}
	fmt.Printf("📊 precision: %.4f\n", res.Metrics.Precision)
	fmt.Printf("📊 recall: %.4f\n", res.Metrics.Recall)
	fmt.Printf("📊 mAP50: %.4f\n", res.Metrics.MAP50)
	fmt.Printf("📊 mAP50-95: %.4f\n", res.Metrics.MAP50_95)
	return nil
}

func runInitConfig(args []string) error {
	fs := flag.NewFlagSet("init-config", flag.ExitOnError)
	var out, root, classes string
	var force bool
	fs.StringVar(&out, "out", config.GetConfigPath(), "where to write the configuration")
	fs.StringVar(&root, "root", "", "dataset root directory")
	fs.StringVar(&classes, "classes", "", "comma separated class names, index order")
	fs.BoolVar(&force, "force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fileExists(out) && !force {
		return fmt.Errorf("%s already exists (use -force to overwrite)", out)
	}
	cfg := config.Default()
	cfg.Dataset.Root = root
	if classes != "" {
		cfg.Classes = splitList(classes)
	}
	if err := cfg.SaveToFile(out); err != nil {
		return err
	}
	log.Printf("wrote %s", out)
	return nil
}
