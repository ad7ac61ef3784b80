package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

type sample struct {
	Workload   string  `json:"workload" yaml:"workload"`
	Throughput float64 `json:"throughput" yaml:"throughput"`
}

func (s sample) Table() *Table {
	t := &Table{}
	t.SetHeaders("WORKLOAD", "OPS/S")
	t.AddRow(s.Workload, "1.5M")
	return t
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseFormat(%q) = (%q, %v), want (%q, err=%v)", tt.input, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestNewFormatter(t *testing.T) {
	if _, ok := NewFormatter(FormatJSON).(*JSONFormatter); !ok {
		t.Error("NewFormatter(json) should return *JSONFormatter")
	}
	if _, ok := NewFormatter(FormatYAML).(*YAMLFormatter); !ok {
		t.Error("NewFormatter(yaml) should return *YAMLFormatter")
	}
	if _, ok := NewFormatter(FormatTable).(*TableFormatter); !ok {
		t.Error("NewFormatter(table) should return *TableFormatter")
	}
}

func TestTableFormatter(t *testing.T) {
	table := &Table{
		Headers: []string{"NAME", "VALUE"},
		Rows:    [][]string{{"spinlock", "1"}, {"transact", "22"}},
	}

	tests := []struct {
		name string
		data any
		want []string
	}{
		{"pointer", table, []string{"NAME", "spinlock", "transact"}},
		{"value", *table, []string{"NAME", "22"}},
		{"tabular", sample{Workload: "alloc"}, []string{"WORKLOAD", "alloc", "1.5M"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := (&TableFormatter{}).Format(&buf, tt.data); err != nil {
				t.Fatalf("Format() error = %v", err)
			}
			for _, s := range tt.want {
				if !strings.Contains(buf.String(), s) {
					t.Errorf("output missing %q:\n%s", s, buf.String())
				}
			}
		})
	}
}

func TestTableFormatter_Alignment(t *testing.T) {
	var buf bytes.Buffer
	table := Table{
		Headers: []string{"A", "B"},
		Rows:    [][]string{{"long-value", "x"}},
	}
	if err := table.Render(&buf); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if strings.Index(lines[0], "B") != strings.Index(lines[1], "x") {
		t.Errorf("columns not aligned:\n%s", buf.String())
	}
}

func TestTableFormatter_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	f := &TableFormatter{NoHeaders: true}
	if err := f.Format(&buf, Table{Headers: []string{"HDR"}, Rows: [][]string{{"row"}}}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if strings.Contains(buf.String(), "HDR") {
		t.Error("headers should be omitted")
	}
}

func TestTableFormatter_Unsupported(t *testing.T) {
	var buf bytes.Buffer
	if err := (&TableFormatter{}).Format(&buf, map[string]int{"a": 1}); err == nil {
		t.Error("Format() expected error for a plain map")
	}
	if err := (&TableFormatter{}).Format(&buf, nil); err != nil {
		t.Errorf("Format(nil) error = %v", err)
	}
}

func TestJSONFormatter(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONFormatter{}).Format(&buf, sample{Workload: "map-read", Throughput: 2.5}); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	var got sample
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if got.Workload != "map-read" || got.Throughput != 2.5 {
		t.Errorf("decoded %+v", got)
	}
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	data := []sample{{Workload: "spinlock", Throughput: 1}, {Workload: "transact", Throughput: 2}}
	if err := (&YAMLFormatter{}).Format(&buf, data); err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	if !strings.Contains(buf.String(), "- workload: spinlock") {
		t.Errorf("unexpected YAML:\n%s", buf.String())
	}
	var got []sample
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not YAML: %v", err)
	}
	if len(got) != 2 || got[1].Workload != "transact" {
		t.Errorf("decoded %+v", got)
	}
}
