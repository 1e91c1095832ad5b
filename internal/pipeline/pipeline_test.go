package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/takitsuba/kindle-audify/internal/audio"
	"github.com/takitsuba/kindle-audify/internal/speech"
	"github.com/takitsuba/kindle-audify/internal/storage"
)

const testShardJSON = `{
  "responses": [
    {
      "fullTextAnnotation": {
        "pages": [
          {
            "blocks": [
              {
                "paragraphs": [
                  {
                    "words": [
                      {
                        "boundingBox": {
                          "normalizedVertices": [
                            {"x": 0.1, "y": 0.10}, {"x": 0.3, "y": 0.10},
                            {"x": 0.3, "y": 0.14}, {"x": 0.1, "y": 0.14}
                          ]
                        },
                        "symbols": [{"text": "春"}, {"text": "は"}]
                      },
                      {
                        "boundingBox": {
                          "normalizedVertices": [
                            {"x": 0.4, "y": 0.10}, {"x": 0.6, "y": 0.10},
                            {"x": 0.6, "y": 0.14}, {"x": 0.4, "y": 0.14}
                          ]
                        },
                        "symbols": [{"text": "あ"}, {"text": "け"}, {"text": "ぼ"}, {"text": "の"}]
                      },
                      {
                        "boundingBox": {
                          "normalizedVertices": [
                            {"x": 0.1, "y": 0.90}, {"x": 0.3, "y": 0.90},
                            {"x": 0.3, "y": 0.95}, {"x": 0.1, "y": 0.95}
                          ]
                        },
                        "symbols": [{"text": "終"}]
                      }
                    ]
                  }
                ]
              }
            ]
          }
        ]
      }
    }
  ]
}`

// fakeProvider writes one shard into the store on first call and counts
// invocations.
type fakeProvider struct {
	store *storage.Memory
	mu    sync.Mutex
	calls int
}

func (f *fakeProvider) ExtractText(_ context.Context, _, destPrefix string) ([]string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	shard := destPrefix + "/output-1-to-1.json"
	f.store.Put(shard, []byte(testShardJSON))
	return []string{shard}, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fixedSynth struct{}

func (fixedSynth) Synthesize(_ context.Context, text string) ([]byte, error) {
	return []byte("AUDIO:" + text), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(mem *storage.Memory, provider *fakeProvider) *Pipeline {
	log := testLogger()
	stage := speech.NewStage(mem, fixedSynth{}, log, 4500, 2, 3)
	merger := audio.NewMerger(mem, log, 32, 2, 3)
	return New(mem, provider, stage, merger, log, "。")
}

func TestLayoutFor(t *testing.T) {
	layout := LayoutFor("books/makura.pdf")
	if layout.OCRPrefix != "json/makura" {
		t.Errorf("expected json/makura, got %q", layout.OCRPrefix)
	}
	if layout.ChunkPrefix != "mp3s/makura" {
		t.Errorf("expected mp3s/makura, got %q", layout.ChunkPrefix)
	}
	if layout.FinalPath != "mp3s/makura.mp3" {
		t.Errorf("expected mp3s/makura.mp3, got %q", layout.FinalPath)
	}
}

func TestPipelineRun_EndToEnd(t *testing.T) {
	mem := storage.NewMemory()
	provider := &fakeProvider{store: mem}
	p := newTestPipeline(mem, provider)

	out, err := p.Run(context.Background(), "books/makura.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "mp3s/makura.mp3" {
		t.Errorf("expected mp3s/makura.mp3, got %q", out)
	}

	// The words yield fragments 春は。 and あけぼの終。, which fit one
	// chunk, so the single segment is copied to the final path.
	data, err := mem.ReadAll(context.Background(), out)
	if err != nil {
		t.Fatalf("final narration missing: %v", err)
	}
	want := "AUDIO:春は。あけぼの終。"
	if string(data) != want {
		t.Errorf("expected %q, got %q", want, data)
	}
}

func TestPipelineRun_SkipsWhenFinalExists(t *testing.T) {
	mem := storage.NewMemory()
	mem.Put("mp3s/makura.mp3", []byte("already narrated"))
	provider := &fakeProvider{store: mem}
	p := newTestPipeline(mem, provider)

	out, err := p.Run(context.Background(), "books/makura.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "mp3s/makura.mp3" {
		t.Errorf("expected the existing narration path, got %q", out)
	}
	if provider.callCount() != 0 {
		t.Errorf("expected no OCR when the final output exists, got %d calls", provider.callCount())
	}
	data, _ := mem.ReadAll(context.Background(), out)
	if string(data) != "already narrated" {
		t.Errorf("expected the existing narration to be kept, got %q", data)
	}
}

func TestPipelineRun_RerunIsIdempotent(t *testing.T) {
	mem := storage.NewMemory()
	provider := &fakeProvider{store: mem}
	p := newTestPipeline(mem, provider)

	first, err := p.Run(context.Background(), "books/makura.pdf")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	firstData, _ := mem.ReadAll(context.Background(), first)

	second, err := p.Run(context.Background(), "books/makura.pdf")
	if err != nil {
		t.Fatalf("unexpected error on rerun: %v", err)
	}
	if second != first {
		t.Errorf("expected the same output path, got %q and %q", first, second)
	}
	secondData, _ := mem.ReadAll(context.Background(), second)
	if string(firstData) != string(secondData) {
		t.Error("expected identical narration content across reruns")
	}
	if provider.callCount() != 1 {
		t.Errorf("expected OCR to run once across both runs, got %d", provider.callCount())
	}
}

func TestPipelineRun_NoTextFails(t *testing.T) {
	mem := storage.NewMemory()
	provider := &emptyProvider{store: mem}
	log := testLogger()
	stage := speech.NewStage(mem, fixedSynth{}, log, 4500, 2, 3)
	merger := audio.NewMerger(mem, log, 32, 2, 3)
	p := New(mem, provider, stage, merger, log, "。")

	if _, err := p.Run(context.Background(), "books/blank.pdf"); err == nil {
		t.Fatal("expected an error for a book with no recognized text")
	}
}

type emptyProvider struct {
	store *storage.Memory
}

func (e *emptyProvider) ExtractText(_ context.Context, _, destPrefix string) ([]string, error) {
	shard := destPrefix + "/output-1-to-1.json"
	e.store.Put(shard, []byte(`{"responses": [{}]}`))
	return []string{shard}, nil
}
