package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"resume-parser-go/internal/constants"
)

// WriteRecordFile 写入输出JSON，父目录不存在时创建，已有文件直接覆盖
func WriteRecordFile(path string, payload []byte) error {
	if path == "" {
		return fmt.Errorf("输出路径不能为空")
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("创建输出目录 %s 失败: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, payload, constants.OutputFileMode); err != nil {
		return fmt.Errorf("写入文件 %s 失败: %w", path, err)
	}
	return nil
}

// ReadRecordFile 读取已生成的JSON，文件不存在时返回的错误满足 errors.Is(err, fs.ErrNotExist)
func ReadRecordFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取文件 %s 失败: %w", path, err)
	}
	return data, nil
}
