package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordMetric(t *testing.T) {
	RecordMetric("bleu", "bolt.DE", 0.42)

	got := testutil.ToFloat64(MetricValue.WithLabelValues("bleu", "bolt.DE"))
	if got != 0.42 {
		t.Errorf("Expected gauge 0.42, got %v", got)
	}
}

func TestObserveCall(t *testing.T) {
	before := testutil.CollectAndCount(ModelCallDuration)
	ObserveCall("test-component", time.Now().Add(-time.Second))
	after := testutil.CollectAndCount(ModelCallDuration)

	if after < before || after == 0 {
		t.Errorf("Expected histogram series for component, got %d (before %d)", after, before)
	}
}

func TestWriteTextfile(t *testing.T) {
	SentencesTranslated.WithLabelValues("mock").Add(3)

	path := filepath.Join(t.TempDir(), "xamr.prom")
	if err := WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read metrics file: %v", err)
	}
	if !strings.Contains(string(content), `xamr_sentences_translated_total{backend="mock"}`) {
		t.Errorf("Expected translated counter in textfile, got:\n%s", content)
	}
}

func TestWriteTextfile_InvalidPath(t *testing.T) {
	if err := WriteTextfile("/nonexistent/dir/xamr.prom"); err == nil {
		t.Error("Expected error for invalid path")
	}
}
