package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadConfigFromYAML 验证配置文件中的值覆盖默认值，未出现的字段保持默认
func TestLoadConfigFromYAML(t *testing.T) {
	yamlContent := `
resume:
  input_path: "docs/cv.pdf"
pdf:
  type: "TIKA"
tika:
  server_url: "http://tika:9998"
  metadata_mode: "full"
minio:
  endpoint: "localhost:9000"
  bucketName: "site"
server:
  api_keys: ["k1", "k2"]
  max_upload_mb: 5
`
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(yamlContent), 0644), "无法写入临时配置文件")

	config, err := LoadConfig(configPath)
	require.NoError(t, err, "加载正确的配置不应返回错误")
	require.NotNil(t, config, "配置对象不应为 nil")

	assert.Equal(t, "docs/cv.pdf", config.Resume.InputPath)
	assert.Equal(t, "src/data/resume.json", config.Resume.OutputPath, "未配置的输出路径应保持默认")
	assert.Equal(t, "tika", config.PDF.Type, "提取器类型应被规范为小写")
	assert.Equal(t, "http://tika:9998", config.Tika.ServerURL)
	assert.Equal(t, "full", config.Tika.MetadataMode)
	assert.Equal(t, 60, config.Tika.Timeout, "Tika超时应保持默认")
	assert.Equal(t, "site", config.MinIO.BucketName)
	assert.Equal(t, "resume/resume.json", config.MinIO.ObjectName)
	assert.Equal(t, []string{"k1", "k2"}, config.Server.APIKeys)
	assert.Equal(t, int64(5<<20), config.Server.MaxUploadBytes())
}

// TestLoadConfigMissingExplicitFile 显式指定的配置文件不存在时应报错
func TestLoadConfigMissingExplicitFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "配置文件不存在")
}

// TestLoadConfigInvalidYAML 语法错误的配置文件应报错
func TestLoadConfigInvalidYAML(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("resume: [unclosed"), 0644))

	_, err := LoadConfig(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "解析配置文件失败")
}

// TestLoadConfigDefaults 找不到任何配置文件时使用默认配置，外部依赖全部关闭
func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("HOME", t.TempDir())

	config, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "My Resume.pdf", config.Resume.InputPath)
	assert.Equal(t, "src/data/resume.json", config.Resume.OutputPath)
	assert.Equal(t, "eino", config.PDF.Type)
	assert.Empty(t, config.Redis.Address, "默认不启用Redis")
	assert.Empty(t, config.MinIO.Endpoint, "默认不启用MinIO")
	assert.Empty(t, config.RabbitMQ.URL, "默认不启用RabbitMQ")
	assert.Empty(t, config.MySQL.Host, "默认不启用MySQL")
	assert.Empty(t, config.Export.XLSXPath)
	assert.False(t, config.Tracing.Enabled)
	assert.Equal(t, "resume.parsed", config.RabbitMQ.ParsedRoutingKey)
}

// TestLoadConfigNonPositiveRateLimit 速率或桶容量写成0或负数时回退到默认值
func TestLoadConfigNonPositiveRateLimit(t *testing.T) {
	for name, body := range map[string]string{
		"zero":     "server:\n  parse_rate_per_second: 0\n  parse_burst: 0\n",
		"negative": "server:\n  parse_rate_per_second: -2\n  parse_burst: -1\n",
	} {
		t.Run(name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			require.NoError(t, os.WriteFile(configPath, []byte(body), 0644))

			config, err := LoadConfig(configPath)
			require.NoError(t, err)
			assert.Equal(t, float64(1), config.Server.ParseRatePerSecond, "速率为0会让解析接口永久返回429")
			assert.Equal(t, 3, config.Server.ParseBurst)
		})
	}

	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("server:\n  parse_rate_per_second: 0.5\n  parse_burst: 10\n"), 0644))
	config, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, 0.5, config.Server.ParseRatePerSecond, "合法的配置值应保留")
	assert.Equal(t, 10, config.Server.ParseBurst)
}

// TestLoadConfigSearchPath 未指定路径时在当前目录查找 config.yaml
func TestLoadConfigSearchPath(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("resume:\n  output_path: out/r.json\n"), 0644))

	config, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "out/r.json", config.Resume.OutputPath)
}

// TestEnvOverrides 环境变量优先于配置文件
func TestEnvOverrides(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("redis:\n  address: \"file:6379\"\n"), 0644))

	t.Setenv("RESUME_INPUT_PATH", "env.pdf")
	t.Setenv("PDF_EXTRACTOR", "native")
	t.Setenv("REDIS_ADDRESS", "env:6379")
	t.Setenv("RESUME_API_KEYS", " a , ,b ")
	t.Setenv("TRACING_ENABLED", "true")

	config, err := LoadConfig(configPath)
	require.NoError(t, err)
	assert.Equal(t, "env.pdf", config.Resume.InputPath)
	assert.Equal(t, "native", config.PDF.Type)
	assert.Equal(t, "env:6379", config.Redis.Address)
	assert.Equal(t, []string{"a", "b"}, config.Server.APIKeys)
	assert.True(t, config.Tracing.Enabled)
}

// TestCreateSampleConfig 示例配置可以被重新加载，且不会覆盖已有文件
func TestCreateSampleConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.yaml")
	require.NoError(t, CreateSampleConfig(path))

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "portfolio", config.MinIO.BucketName)

	err = CreateSampleConfig(path)
	require.Error(t, err, "已存在的文件不应被覆盖")
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 5*time.Second, GetDuration("5s", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("", time.Minute))
	assert.Equal(t, time.Minute, GetDuration("bogus", time.Minute))
}

func TestMySQLDSN(t *testing.T) {
	c := MySQLConfig{Host: "db", Port: 3306, Username: "u", Password: "p", Database: "resume"}
	assert.Equal(t, "u:p@tcp(db:3306)/resume?charset=utf8mb4&parseTime=True&loc=Local&timeout=10s", c.MySQLDSN())
}

// chdir 切换工作目录并在测试结束时恢复（等价于 Go 1.24 的 t.Chdir）
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
