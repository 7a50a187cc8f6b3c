package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/artvista/cartsync/internal/log"
	inOtel "github.com/artvista/cartsync/internal/otel"
	"github.com/artvista/cartsync/pkg/cart"
)

// FileStore keeps the guest cart as one JSON file, the desktop analogue of
// a browser localStorage key.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Read(c context.Context) []cart.Item {
	c, span := inOtel.Tracer.Start(c, "FileStore Read")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "FileStore Read").
		Str(log.KeyStoragePath, s.path).
		Logger()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn().Err(err).Msgf("failed reading guest cart with error=%s", err.Error())
		}
		return []cart.Item{}
	}

	items := []cart.Item{}
	if err := json.Unmarshal(data, &items); err != nil {
		err = fmt.Errorf("failed unmarshaling guest cart with error=%w", err)
		logger.Warn().Err(err).Msg("guest cart is corrupt, purging it")
		if removeErr := os.Remove(s.path); removeErr != nil {
			logger.Warn().
				Err(removeErr).
				Msgf("failed purging corrupt guest cart with error=%s", removeErr.Error())
		}
		return []cart.Item{}
	}
	return items
}

func (s *FileStore) Write(c context.Context, items []cart.Item) error {
	c, span := inOtel.Tracer.Start(c, "FileStore Write")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "FileStore Write").
		Str(log.KeyStoragePath, s.path).
		Int(log.KeyCartItemCount, len(items)).
		Logger()

	data, err := json.Marshal(items)
	if err != nil {
		err = fmt.Errorf("failed marshaling guest cart with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		err = fmt.Errorf("failed creating guest cart directory with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		err = fmt.Errorf("failed writing guest cart with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}

func (s *FileStore) Clear(c context.Context) error {
	c, span := inOtel.Tracer.Start(c, "FileStore Clear")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "FileStore Clear").
		Str(log.KeyStoragePath, s.path).
		Logger()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		err = fmt.Errorf("failed clearing guest cart with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	return nil
}
