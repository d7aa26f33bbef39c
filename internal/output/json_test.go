package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/bgricker/apiconform/internal/issues"
	"github.com/bgricker/apiconform/internal/suite"
)

func TestJSONRenderer(t *testing.T) {
	rep := sampleReport()
	findings := issues.MustCompile(issues.DefaultRules()).Derive(rep)
	doc := NewReport("TrimTime Backend API Test Suite", rep, findings, suite.Core().Sections)

	buf := &bytes.Buffer{}
	if err := NewJSON(buf).Render(doc); err != nil {
		t.Fatalf("render json: %v", err)
	}

	var decoded struct {
		Title   string `json:"title"`
		Summary struct {
			Total       int      `json:"total"`
			Passed      int      `json:"passed"`
			Failed      int      `json:"failed"`
			SuccessRate *float64 `json:"success_rate"`
			ExitCode    int      `json:"exit_code"`
		} `json:"summary"`
		Run struct {
			RunID   string `json:"run_id"`
			Results []struct {
				Name    string         `json:"name"`
				Passed  bool           `json:"passed"`
				Details map[string]any `json:"details"`
			} `json:"results"`
		} `json:"run"`
		Findings []issues.Finding `json:"findings"`
		Sections []suite.Section  `json:"sections"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}

	if decoded.Summary.Total != 2 || decoded.Summary.Passed != 1 || decoded.Summary.Failed != 1 {
		t.Fatalf("summary mismatch: %+v", decoded.Summary)
	}
	if decoded.Summary.SuccessRate == nil || *decoded.Summary.SuccessRate != 50 {
		t.Fatalf("success rate mismatch: %v", decoded.Summary.SuccessRate)
	}
	if decoded.Summary.ExitCode != 1 {
		t.Fatalf("exit code mismatch: %d", decoded.Summary.ExitCode)
	}
	if decoded.Run.RunID != "run-1" || len(decoded.Run.Results) != 2 {
		t.Fatalf("run mismatch: %+v", decoded.Run)
	}
	if decoded.Run.Results[1].Details["status_code"] != float64(401) {
		t.Fatalf("details not serialized: %+v", decoded.Run.Results[1])
	}
	if len(decoded.Findings) != 1 || !decoded.Findings[0].Critical() {
		t.Fatalf("findings mismatch: %+v", decoded.Findings)
	}
	if len(decoded.Sections) != 1 || len(decoded.Sections[0].Items) != 5 {
		t.Fatalf("sections mismatch: %+v", decoded.Sections)
	}
}

func TestJSONRendererEmptyRunHasNullRate(t *testing.T) {
	rep := sampleReport()
	rep.Results = nil

	buf := &bytes.Buffer{}
	if err := NewJSON(buf).Render(NewReport("empty", rep, nil, nil)); err != nil {
		t.Fatalf("render json: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"success_rate": null`)) {
		t.Fatalf("expected null success rate, got %s", buf.String())
	}
}

func TestJSONRenderList(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := NewJSON(buf).RenderList(suite.Builtins()); err != nil {
		t.Fatalf("render list: %v", err)
	}

	var decoded []SuiteListing
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode output: %v", err)
	}
	if len(decoded) != 3 || decoded[0].Name != "core" {
		t.Fatalf("listing mismatch: %+v", decoded)
	}
	if len(decoded[0].Cases) != 19 || decoded[0].Cases[0] != "Health Check" {
		t.Fatalf("core cases mismatch: %v", decoded[0].Cases)
	}
}
