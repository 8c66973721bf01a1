package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"resume-parser-go/internal/config"
	"resume-parser-go/internal/logger"
	"resume-parser-go/internal/processor"
	"resume-parser-go/internal/storage"
	"resume-parser-go/internal/tracing"
)

var version = "1.0.0" //nolint:gochecknoglobals

type options struct {
	configPath        string
	input             string
	output            string
	extractor         string
	dryRun            bool
	printJSON         bool
	dumpText          bool
	writeSampleConfig string
}

func main() {
	var opts options
	pflag.StringVarP(&opts.configPath, "config", "c", "", "配置文件路径，为空时在默认位置查找")
	pflag.StringVarP(&opts.input, "input", "i", "", "输入PDF路径，覆盖 resume.input_path")
	pflag.StringVarP(&opts.output, "output", "o", "", "输出JSON路径，覆盖 resume.output_path")
	pflag.StringVar(&opts.extractor, "extractor", "", "PDF提取器: eino, tika, native")
	pflag.BoolVar(&opts.dryRun, "dry-run", false, "只解析和校验，不写文件也不发布")
	pflag.BoolVar(&opts.printJSON, "print", false, "把生成的JSON输出到标准输出")
	pflag.BoolVar(&opts.dumpText, "dump-text", false, "只输出提取到的纯文本，用于排查分段问题")
	pflag.StringVar(&opts.writeSampleConfig, "write-sample-config", "", "把示例配置写到指定路径后退出")
	pflag.Parse()

	if err := run(opts, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "❌ 解析简历失败: %v\n", err)
		os.Exit(1)
	}
}

// run 加载配置并组装处理器，stdout 只输出结果，提示信息写 stderr
func run(opts options, stdout, stderr io.Writer) error {
	if opts.writeSampleConfig != "" {
		if err := config.CreateSampleConfig(opts.writeSampleConfig); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "示例配置已写入: %s\n", opts.writeSampleConfig)
		return nil
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("加载配置失败: %w", err)
	}
	applyFlagOverrides(cfg, opts)

	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})
	log := logger.Component("parse-resume")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := tracing.Init(ctx, &cfg.Tracing, version)
	if err != nil {
		return fmt.Errorf("初始化链路追踪失败: %w", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			log.Warn().Err(err).Msg("关闭链路追踪失败")
		}
	}()

	var compOpts []processor.ComponentOpt
	if !opts.dryRun && !opts.dumpText {
		store, err := storage.NewStorage(ctx, cfg, log)
		if err != nil {
			return fmt.Errorf("初始化存储失败: %w", err)
		}
		defer store.Close()
		compOpts = append(compOpts, processor.WithStorage(store))
	}

	proc, err := processor.CreateProcessorFromConfig(ctx, cfg, log, compOpts...)
	if err != nil {
		return err
	}
	return execute(ctx, proc, cfg, opts, stdout, stderr)
}

// execute 对已组装好的处理器执行一次解析并输出摘要
func execute(ctx context.Context, proc *processor.ResumeProcessor, cfg *config.Config, opts options, stdout, stderr io.Writer) error {
	if opts.dumpText {
		doc, _, err := proc.LoadDocument(ctx, cfg.Resume.InputPath)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, doc.Text)
		return nil
	}

	fmt.Fprintln(stderr, "Reading PDF from:", cfg.Resume.InputPath)
	result, err := proc.Process(ctx, processor.ProcessOptions{
		InputFile:  cfg.Resume.InputPath,
		OutputFile: cfg.Resume.OutputPath,
		DryRun:     opts.dryRun,
	})
	if err != nil {
		return err
	}

	// --print 时标准输出只留JSON
	summaryOut := stdout
	if opts.printJSON {
		fmt.Fprintln(stdout, string(result.Payload))
		summaryOut = stderr
	}
	printSummary(summaryOut, result, opts.dryRun)
	return nil
}

func applyFlagOverrides(cfg *config.Config, opts options) {
	if opts.input != "" {
		cfg.Resume.InputPath = opts.input
	}
	if opts.output != "" {
		cfg.Resume.OutputPath = opts.output
	}
	if opts.extractor != "" {
		cfg.PDF.Type = opts.extractor
	}
}

func printSummary(w io.Writer, result *processor.ProcessResult, dryRun bool) {
	record := result.Record
	counts := record.Counts()

	fmt.Fprintln(w, "PDF extracted successfully")
	fmt.Fprintln(w, "Total pages:", result.Run.PageCount)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "✅ Resume parsed successfully!")
	if dryRun {
		fmt.Fprintln(w, "📄 Dry run, nothing written")
	} else {
		fmt.Fprintln(w, "📄 Output saved to:", result.Run.OutputPath)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Extracted data summary:")
	fmt.Fprintln(w, "- Name:", record.Name)
	fmt.Fprintln(w, "- Title:", record.Title)
	fmt.Fprintln(w, "- Email:", record.Contact.Email)
	fmt.Fprintln(w, "- Skills:", counts.Skills)
	fmt.Fprintln(w, "- Experience entries:", counts.Experience)
	fmt.Fprintln(w, "- Education entries:", counts.Education)
	fmt.Fprintln(w, "- Projects:", counts.Projects)
	fmt.Fprintln(w, "- Certifications:", counts.Certifications)

	if len(result.Stats.PublishErrors) > 0 {
		names := make([]string, 0, len(result.Stats.PublishErrors))
		for name := range result.Stats.PublishErrors {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "⚠️  Publish warnings:")
		for _, name := range names {
			fmt.Fprintf(w, "- %s: %s\n", name, result.Stats.PublishErrors[name])
		}
	}
}
