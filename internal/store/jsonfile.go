package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"directchat/internal/models"
)

// FileCollection 把一个集合保存为单个 JSON 数组文件。
type FileCollection[T any] struct {
	path string
}

// NewFileCollection 打开（必要时创建）path 指向的集合文件，新文件内容为 []。
func NewFileCollection[T any](path string) (*FileCollection[T], error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}
	return &FileCollection[T]{path: path}, nil
}

func (f *FileCollection[T]) ReadAll(ctx context.Context) ([]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(f.path)
	if err != nil {
		return nil, err
	}
	var records []T
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(f.path), err)
	}
	return records, nil
}

// WriteAll 先写临时文件再 rename，避免进程中途退出留下半个文件。
func (f *FileCollection[T]) WriteAll(ctx context.Context, records []T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if records == nil {
		records = []T{}
	}
	b, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}

// OpenJSONDir 在 dir 下打开 users.json、chats.json、messages.json。
func OpenJSONDir(dir string) (*Gateway, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	users, err := NewFileCollection[models.User](filepath.Join(dir, UsersCollection+".json"))
	if err != nil {
		return nil, err
	}
	chats, err := NewFileCollection[models.Chat](filepath.Join(dir, ChatsCollection+".json"))
	if err != nil {
		return nil, err
	}
	messages, err := NewFileCollection[models.Message](filepath.Join(dir, MessagesCollection+".json"))
	if err != nil {
		return nil, err
	}
	return NewGateway(users, chats, messages), nil
}
