package source

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolbeans/hanrei/pkg/types"
)

func writeText(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
}

func TestLocal_ReadText(t *testing.T) {
	dir := t.TempDir()
	writeText(t, dir, "092001.txt", "主文\n本件控訴を棄却する。")

	l := NewLocal(dir)
	text, err := l.ReadText(context.Background(), "092001")
	require.NoError(t, err)
	assert.Equal(t, "主文\n本件控訴を棄却する。", text)

	_, err = l.ReadText(context.Background(), "missing")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestLocal_ReadText_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewLocal(t.TempDir()).ReadText(ctx, "1")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLocal_List(t *testing.T) {
	dir := t.TempDir()
	writeText(t, dir, "092002.txt", "b")
	writeText(t, dir, "092001.txt", "a")
	writeText(t, dir, "notes.md", "ignored")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0o755))

	numbers, err := NewLocal(dir).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"092001", "092002"}, numbers)
}

func TestLocal_List_MissingDirectory(t *testing.T) {
	_, err := NewLocal(filepath.Join(t.TempDir(), "nope")).List(context.Background())
	assert.Error(t, err)
}

func TestNumberFromPath(t *testing.T) {
	number, ok := NumberFromPath("/data/texts/092001.txt")
	assert.True(t, ok)
	assert.Equal(t, "092001", number)

	_, ok = NumberFromPath("/data/texts/092001.pdf")
	assert.False(t, ok)
	_, ok = NumberFromPath(".txt")
	assert.False(t, ok)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	reader, err := New(ctx, Config{Directory: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &Local{}, reader)

	_, err = New(ctx, Config{Type: "local"})
	assert.Error(t, err)

	_, err = New(ctx, Config{Type: "s3"})
	assert.Error(t, err)

	_, err = New(ctx, Config{Type: "ftp"})
	assert.Error(t, err)
}

type fakeS3 struct {
	objects map[string]string
	pages   [][]string
	calls   int
}

func (f *fakeS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := f.objects[aws.ToString(params.Key)]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func (f *fakeS3) ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	if f.pages == nil {
		return nil, errors.New("access denied")
	}
	page := f.pages[f.calls]
	f.calls++

	out := &s3.ListObjectsV2Output{}
	for _, key := range page {
		out.Contents = append(out.Contents, s3types.Object{Key: aws.String(key)})
	}
	if f.calls < len(f.pages) {
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String("next")
	}
	return out, nil
}

func TestS3_ReadText(t *testing.T) {
	client := &fakeS3{objects: map[string]string{"texts/092001.txt": "主文"}}
	reader := NewS3WithClient(client, "hanrei", "texts/")

	text, err := reader.ReadText(context.Background(), "092001")
	require.NoError(t, err)
	assert.Equal(t, "主文", text)

	_, err = reader.ReadText(context.Background(), "092002")
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestS3_List(t *testing.T) {
	client := &fakeS3{pages: [][]string{
		{"texts/092003.txt", "texts/092001.txt"},
		{"texts/archive/092000.txt", "texts/readme.md", "texts/092002.txt"},
	}}
	reader := NewS3WithClient(client, "hanrei", "texts/")

	numbers, err := reader.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"092001", "092002", "092003"}, numbers)
	assert.Equal(t, 2, client.calls)
}

func TestS3_ListError(t *testing.T) {
	reader := NewS3WithClient(&fakeS3{}, "hanrei", "")
	_, err := reader.List(context.Background())
	assert.Error(t, err)
}

func TestMemory(t *testing.T) {
	m := NewMemory(map[string]string{"2": "b", "1": "a"})

	text, err := m.ReadText(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "a", text)

	_, err = m.ReadText(context.Background(), "3")
	assert.ErrorIs(t, err, types.ErrNotFound)

	numbers, err := m.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, numbers)
}
