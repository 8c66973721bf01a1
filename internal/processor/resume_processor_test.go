package processor

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-parser-go/internal/types"
)

const sampleText = "Jane Doe\r\nSenior Engineer\r\njane@example.com | (555) 123-4567\r\n" +
	"Summary\r\nBuilds reliable systems.\r\n" +
	"Skills\r\nGo, Python, Go\r\n" +
	"Experience\r\n2020 - Present\r\nStaff Engineer\r\nAcme\r\n• Led migration\r\n" +
	"Education\r\n2010 - 2014\r\nBSc Computer Science\r\nMIT\r\n"

// MockPDFExtractor 模拟PDF提取器
type MockPDFExtractor struct {
	mu    sync.Mutex
	text  string
	pages int
	err   error
	calls int
}

func (m *MockPDFExtractor) ExtractFromBytes(ctx context.Context, data []byte, uri string) (*types.Document, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &types.Document{Text: m.text, PageCount: m.pages, Metadata: map[string]interface{}{"source_file_path": uri}}, nil
}

func (m *MockPDFExtractor) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockTextCache 内存缓存
type MockTextCache struct {
	docs   map[string]*types.Document
	getErr error
	setErr error
}

func newMockTextCache() *MockTextCache {
	return &MockTextCache{docs: map[string]*types.Document{}}
}

func (c *MockTextCache) GetDocument(_ context.Context, md5 string) (*types.Document, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.docs[md5], nil
}

func (c *MockTextCache) SetDocument(_ context.Context, md5 string, doc *types.Document) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.docs[md5] = doc
	return nil
}

// MockPublisher 记录收到的调用
type MockPublisher struct {
	name     string
	err      error
	runs     []*types.ParseRun
	payloads [][]byte
	// outputExisted 发布时输出文件是否已经写入
	outputExisted bool
}

func (p *MockPublisher) Name() string { return p.name }

func (p *MockPublisher) Publish(_ context.Context, run *types.ParseRun, _ *types.ResumeRecord, payload []byte) error {
	p.runs = append(p.runs, run)
	p.payloads = append(p.payloads, payload)
	if _, err := os.Stat(run.OutputPath); err == nil {
		p.outputExisted = true
	}
	return p.err
}

func writeInputPDF(t *testing.T, dir string) string {
	path := filepath.Join(dir, "My Resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4 fake"), 0644))
	return path
}

func newTestProcessor(t *testing.T, extractor PDFExtractor, compOpts ...ComponentOpt) *ResumeProcessor {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	rp, err := CreateProcessor(
		append([]ComponentOpt{WithPDFExtractor(extractor)}, compOpts...),
		[]SettingOpt{WithClock(func() time.Time { return fixed })},
	)
	require.NoError(t, err, "创建处理器不应失败")
	return rp
}

func TestNewResumeProcessorRequiresExtractor(t *testing.T) {
	_, err := NewResumeProcessor(&Components{}, nil)
	require.Error(t, err)
	_, err = NewResumeProcessor(nil, nil)
	require.Error(t, err)
}

func TestProcessWritesOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeInputPDF(t, dir)
	output := filepath.Join(dir, "src", "data", "resume.json")

	extractor := &MockPDFExtractor{text: sampleText, pages: 2}
	rp := newTestProcessor(t, extractor)

	result, err := rp.Process(context.Background(), ProcessOptions{InputFile: input, OutputFile: output})
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe", result.Record.Name)
	assert.Equal(t, "Senior Engineer", result.Record.Title)
	assert.Equal(t, []string{"Go", "Python"}, result.Record.Skills, "技能应去重")
	assert.Equal(t, 2, result.Run.PageCount)
	assert.Len(t, result.Run.SourceMD5, 32)
	assert.NotEmpty(t, result.Run.RunID)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), result.Run.ParsedAt)
	assert.NotContains(t, result.Document.Text, "\r", "文本应统一换行")

	written, err := os.ReadFile(output)
	require.NoError(t, err, "输出文件应被创建")
	assert.Equal(t, result.Payload, written)

	var decoded types.ResumeRecord
	require.NoError(t, json.Unmarshal(written, &decoded))
	assert.Equal(t, *result.Record, decoded)
}

// TestProcessMissingInput 输入文件不存在时返回致命错误且不写输出
func TestProcessMissingInput(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "resume.json")
	require.NoError(t, os.WriteFile(output, []byte("previous"), 0644))

	extractor := &MockPDFExtractor{text: sampleText}
	publisher := &MockPublisher{name: "mock"}
	rp := newTestProcessor(t, extractor, WithPublishers(publisher))

	_, err := rp.Process(context.Background(), ProcessOptions{
		InputFile:  filepath.Join(dir, "missing.pdf"),
		OutputFile: output,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrResumeNotFound), "应为 ErrResumeNotFound: %v", err)
	assert.True(t, IsFatal(err))
	assert.Zero(t, extractor.Calls(), "不应调用提取器")
	assert.Empty(t, publisher.runs, "不应发布")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data), "已有输出文件不应被修改")
}

func TestProcessExtractionFailure(t *testing.T) {
	dir := t.TempDir()
	input := writeInputPDF(t, dir)
	output := filepath.Join(dir, "out", "resume.json")

	cause := errors.New("corrupt xref table")
	rp := newTestProcessor(t, &MockPDFExtractor{err: cause})

	_, err := rp.Process(context.Background(), ProcessOptions{InputFile: input, OutputFile: output})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtractionFailed))
	assert.True(t, errors.Is(err, cause), "底层原因应可被识别")
	assert.Contains(t, err.Error(), "corrupt xref table")

	var pe *ResumeProcessError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "extract", pe.Op)
	assert.Equal(t, input, pe.Path)

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "提取失败时不应写出文件")
}

func TestProcessDryRun(t *testing.T) {
	dir := t.TempDir()
	input := writeInputPDF(t, dir)
	output := filepath.Join(dir, "resume.json")
	publisher := &MockPublisher{name: "mock"}

	rp := newTestProcessor(t, &MockPDFExtractor{text: sampleText}, WithPublishers(publisher))
	result, err := rp.Process(context.Background(), ProcessOptions{InputFile: input, OutputFile: output, DryRun: true})
	require.NoError(t, err)
	assert.NotEmpty(t, result.Payload)

	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr), "dry-run 不写文件")
	assert.Empty(t, publisher.runs, "dry-run 不发布")
}

// TestProcessPublishers 发布器在写入之后调用，单个失败不影响结果和其他发布器
func TestProcessPublishers(t *testing.T) {
	dir := t.TempDir()
	input := writeInputPDF(t, dir)
	output := filepath.Join(dir, "resume.json")

	failing := &MockPublisher{name: "failing", err: errors.New("broker down")}
	ok := &MockPublisher{name: "ok"}
	rp := newTestProcessor(t, &MockPDFExtractor{text: sampleText}, WithPublishers(failing, nil, ok))
	require.Len(t, rp.Publishers, 2, "nil 发布器应被忽略")

	result, err := rp.Process(context.Background(), ProcessOptions{InputFile: input, OutputFile: output})
	require.NoError(t, err, "发布失败不是致命错误")

	require.Len(t, ok.runs, 1)
	assert.True(t, ok.outputExisted, "发布时输出文件应已写入")
	assert.Equal(t, result.Payload, ok.payloads[0])
	assert.Equal(t, output, ok.runs[0].OutputPath)

	require.Contains(t, result.Stats.PublishErrors, "failing")
	assert.Contains(t, result.Stats.PublishErrors["failing"], "broker down")
	assert.NotContains(t, result.Stats.PublishErrors, "ok")
}

func TestProcessTextCache(t *testing.T) {
	dir := t.TempDir()
	input := writeInputPDF(t, dir)
	cache := newMockTextCache()
	extractor := &MockPDFExtractor{text: sampleText}
	rp := newTestProcessor(t, extractor, WithTextCache(cache))

	first, err := rp.Process(context.Background(), ProcessOptions{InputFile: input, DryRun: true})
	require.NoError(t, err)
	assert.False(t, first.Stats.CacheHit)
	assert.Equal(t, 1, extractor.Calls())
	assert.Contains(t, cache.docs, first.Run.SourceMD5)

	second, err := rp.Process(context.Background(), ProcessOptions{InputFile: input, DryRun: true})
	require.NoError(t, err)
	assert.True(t, second.Stats.CacheHit)
	assert.Equal(t, 1, extractor.Calls(), "缓存命中时不应再次调用提取器")
	assert.Equal(t, first.Payload, second.Payload)
}

func TestProcessCacheErrorsAreIgnored(t *testing.T) {
	dir := t.TempDir()
	input := writeInputPDF(t, dir)
	cache := &MockTextCache{getErr: errors.New("redis down"), setErr: errors.New("redis down")}
	extractor := &MockPDFExtractor{text: sampleText}
	rp := newTestProcessor(t, extractor, WithTextCache(cache))

	result, err := rp.Process(context.Background(), ProcessOptions{InputFile: input, DryRun: true})
	require.NoError(t, err)
	assert.False(t, result.Stats.CacheHit)
	assert.Equal(t, 1, extractor.Calls())
}

func TestParseBytes(t *testing.T) {
	rp := newTestProcessor(t, &MockPDFExtractor{text: "", pages: 1})
	result, err := rp.ParseBytes(context.Background(), []byte("%PDF"), "upload.pdf")
	require.NoError(t, err)

	assert.Equal(t, types.DefaultName, result.Record.Name)
	assert.Equal(t, types.DefaultSummary, result.Record.Summary)
	assert.Empty(t, result.Run.OutputPath)
	assert.JSONEq(t, `{
		"name": "Your Name",
		"title": "Your Title",
		"contact": {"email": "", "phone": "", "location": "", "linkedin": "", "github": ""},
		"summary": "Professional summary will appear here.",
		"skills": [],
		"experience": [],
		"education": [],
		"projects": [],
		"certifications": []
	}`, string(result.Payload))
}

func TestExtractTimeout(t *testing.T) {
	slow := extractorFunc(func(ctx context.Context, _ []byte, _ string) (*types.Document, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	rp, err := CreateProcessor([]ComponentOpt{WithPDFExtractor(slow)}, []SettingOpt{WithExtractTimeout(10 * time.Millisecond)})
	require.NoError(t, err)

	_, err = rp.ParseBytes(context.Background(), []byte("%PDF"), "slow.pdf")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrExtractionFailed))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

type extractorFunc func(ctx context.Context, data []byte, uri string) (*types.Document, error)

func (f extractorFunc) ExtractFromBytes(ctx context.Context, data []byte, uri string) (*types.Document, error) {
	return f(ctx, data, uri)
}

func TestValidatePayloadRejectsBrokenShape(t *testing.T) {
	schema, err := compileSchema(BuildResumeJSONSchema())
	require.NoError(t, err)

	good, err := types.MarshalRecord(types.NewResumeRecord())
	require.NoError(t, err)
	require.NoError(t, validatePayload(schema, good))

	assert.Error(t, validatePayload(schema, []byte(`{"name":"x"}`)), "缺少字段应校验失败")
	assert.Error(t, validatePayload(schema, []byte(`not json`)))

	dup := types.NewResumeRecord()
	dup.Skills = []string{"Go", "Go"}
	payload, err := types.MarshalRecord(dup)
	require.NoError(t, err)
	assert.Error(t, validatePayload(schema, payload), "重复技能应校验失败")
}

func TestIsFatal(t *testing.T) {
	assert.False(t, IsFatal(nil))
	assert.True(t, IsFatal(NewNotFoundError("a.pdf", nil)))
	assert.True(t, IsFatal(NewWriteError("out.json", errors.New("disk full"))))
	assert.False(t, IsFatal(NewPublishError("minio", errors.New("timeout"))))

	err := NewNotFoundError("a.pdf", nil)
	assert.Equal(t, "简历文件不存在 (操作:load, 路径:a.pdf)", err.Error())
}

func TestTraceErrorType(t *testing.T) {
	assert.Equal(t, "not_found", string(traceErrorType(NewNotFoundError("a.pdf", nil))))
	assert.Equal(t, "extraction", string(traceErrorType(NewExtractionError("a.pdf", errors.New("bad xref")))))
	assert.Equal(t, "validation", string(traceErrorType(NewValidationError("a.pdf", errors.New("schema")))))
	assert.Equal(t, "file", string(traceErrorType(NewWriteError("out.json", errors.New("disk full")))))
	assert.Equal(t, "internal", string(traceErrorType(errors.New("other"))))
}
