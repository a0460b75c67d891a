package avatars

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

type fakeStorage struct {
	objects map[string][]byte
	deleted []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{objects: map[string][]byte{}}
}

func (s *fakeStorage) EnsureBucket(_ context.Context) error { return nil }

func (s *fakeStorage) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.objects[key] = data
	return nil
}

func (s *fakeStorage) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://s3.test/" + key, nil
}

func (s *fakeStorage) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	delete(s.objects, key)
	return nil
}

type fakeSaver struct {
	urls    map[int64]string
	failure error
}

func (f *fakeSaver) SetAvatarURL(_ context.Context, userID int64, avatarURL string) error {
	if f.failure != nil {
		return f.failure
	}
	if f.urls == nil {
		f.urls = map[int64]string{}
	}
	f.urls[userID] = avatarURL
	return nil
}

func TestUploadStoresObjectAndSavesURL(t *testing.T) {
	storage := newFakeStorage()
	saver := &fakeSaver{}
	svc := NewService(saver, storage)

	body := []byte("fake image bytes")
	url, err := svc.Upload(context.Background(), 1, "image/png", bytes.NewReader(body), int64(len(body)))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(url, "https://s3.test/avatars/1/") {
		t.Fatalf("unexpected avatar url: %q", url)
	}
	if !strings.HasSuffix(url, ".png") {
		t.Fatalf("expected png extension in url %q", url)
	}
	if saver.urls[1] != url {
		t.Fatalf("expected profile avatar url %q, got %q", url, saver.urls[1])
	}
	if len(storage.objects) != 1 {
		t.Fatalf("expected one stored object, got %d", len(storage.objects))
	}
}

func TestUploadRejectsOversizedBody(t *testing.T) {
	svc := NewService(&fakeSaver{}, newFakeStorage())

	_, err := svc.Upload(context.Background(), 1, "image/jpeg", bytes.NewReader([]byte("x")), MaxAvatarSize+1)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	svc := NewService(&fakeSaver{}, newFakeStorage())

	body := []byte("not an image")
	_, err := svc.Upload(context.Background(), 1, "application/pdf", bytes.NewReader(body), int64(len(body)))
	if !errors.Is(err, ErrBadMimeType) {
		t.Fatalf("expected ErrBadMimeType, got %v", err)
	}
}

func TestUploadAcceptsContentTypeWithCharset(t *testing.T) {
	storage := newFakeStorage()
	svc := NewService(&fakeSaver{}, storage)

	body := []byte("gif bytes")
	url, err := svc.Upload(context.Background(), 1, "image/gif; charset=binary", bytes.NewReader(body), int64(len(body)))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasSuffix(url, ".gif") {
		t.Fatalf("expected gif extension in url %q", url)
	}
}

func TestUploadCleansUpWhenSaveFails(t *testing.T) {
	storage := newFakeStorage()
	saver := &fakeSaver{failure: errors.New("db down")}
	svc := NewService(saver, storage)

	body := []byte("fake image bytes")
	_, err := svc.Upload(context.Background(), 1, "image/png", bytes.NewReader(body), int64(len(body)))
	if err == nil {
		t.Fatalf("expected error when profile save fails")
	}
	if len(storage.objects) != 0 {
		t.Fatalf("expected stored object to be removed, got %d left", len(storage.objects))
	}
	if len(storage.deleted) != 1 {
		t.Fatalf("expected one delete call, got %d", len(storage.deleted))
	}
}
