package importer

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hazyhaar/rebeauty/pkg/client"
	"github.com/hazyhaar/rebeauty/pkg/note"
	"golang.org/x/text/encoding/htmlindex"
)

const sampleCSV = `氏名,フリガナ,電話番号,メールアドレス,生年月日,メール配信,肌タイプ,肌悩み,メモ
山田 花子,ヤマダ ハナコ,090-1111-2222,hanako@example.com,1990/04/01,はい,乾燥肌,"シミ, くすみ",紹介
,,03-0000-0000,,,,,,
佐藤舞,サトウ マイ,080-3333-4444,,1985-13-01,,,,

鈴木 一,スズキ ハジメ,,,,0,,,
`

func TestRead_DefaultMapping(t *testing.T) {
	rows, err := Read(strings.NewReader(sampleCSV), DefaultMapping())
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 4 {
		t.Fatalf("expected 4 rows (blank line skipped), got %d", len(rows))
	}

	r := rows[0]
	if r.Err != nil {
		t.Fatalf("row 1: %v", r.Err)
	}
	if r.Line != 2 {
		t.Errorf("line = %d, want 2", r.Line)
	}
	in := r.Input
	if in.Name != "山田 花子" || in.Kana != "ヤマダ ハナコ" || in.Phone != "090-1111-2222" {
		t.Errorf("unexpected contact fields: %+v", in)
	}
	if in.Birthday != "1990-04-01" || !in.EmailOptIn {
		t.Errorf("birthday/opt-in = %q/%v", in.Birthday, in.EmailOptIn)
	}
	p := note.Parse(in.Note)
	if p.SkinType != "乾燥肌" || len(p.SkinConcerns) != 2 || p.SkinConcerns[1] != "くすみ" || p.Memo != "紹介" {
		t.Errorf("unexpected profile: %+v (note %q)", p, in.Note)
	}

	if !errors.Is(rows[1].Err, ErrNoName) {
		t.Errorf("row 2: expected ErrNoName, got %v", rows[1].Err)
	}
	if rows[2].Err == nil {
		t.Error("row 3: expected birthday error")
	}
	if rows[3].Err != nil || rows[3].Input.EmailOptIn || rows[3].Input.Note != "" {
		t.Errorf("row 4: unexpected %+v / %v", rows[3].Input, rows[3].Err)
	}
	if rows[3].Line != 6 {
		t.Errorf("row 4 line = %d, want 6", rows[3].Line)
	}
}

func TestRead_ShiftJIS(t *testing.T) {
	enc, err := htmlindex.Get("shift_jis")
	if err != nil {
		t.Fatalf("htmlindex: %v", err)
	}
	raw, err := enc.NewEncoder().String("名前;電話\n田中 美咲;090-5555-6666\n")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	m := Mapping{
		Format:  FormatSpec{Delimiter: ";", Encoding: "Shift_JIS", HasHeader: true},
		Columns: ColumnSpec{Name: "名前", Phone: "電話"},
	}
	rows, err := Read(bytes.NewReader([]byte(raw)), m)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 1 || rows[0].Input.Name != "田中 美咲" || rows[0].Input.Phone != "090-5555-6666" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestRead_PositionalColumns(t *testing.T) {
	m := Mapping{
		Format:  FormatSpec{Delimiter: "\t", ListSeparator: "/"},
		Columns: ColumnSpec{Name: "2", IdealSkin: "3"},
	}
	rows, err := Read(strings.NewReader("7\t高橋 愛\tツヤ肌/透明感\n"), m)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	p := note.Parse(rows[0].Input.Note)
	if rows[0].Input.Name != "高橋 愛" || len(p.IdealSkin) != 2 || p.IdealSkin[0] != "ツヤ肌" {
		t.Fatalf("unexpected row: %+v, profile %+v", rows[0].Input, p)
	}
}

func TestRead_ByteOrderMark(t *testing.T) {
	tests := []struct {
		name string
		m    Mapping
		data string
	}{
		{"with header", Mapping{Format: FormatSpec{HasHeader: true}, Columns: ColumnSpec{Name: "氏名", Phone: "電話番号"}}, "\ufeff氏名,電話番号\n山田花子,090\n"},
		{"without header", Mapping{Columns: ColumnSpec{Name: "1", Phone: "2"}}, "\ufeff山田花子,090\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := Read(strings.NewReader(tt.data), tt.m)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if len(rows) != 1 || rows[0].Input.Name != "山田花子" || rows[0].Input.Phone != "090" {
				t.Fatalf("unexpected rows: %+v", rows)
			}
		})
	}
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name string
		m    Mapping
		data string
	}{
		{"no name column", Mapping{}, "a\n"},
		{"name missing from header", Mapping{Format: FormatSpec{HasHeader: true}, Columns: ColumnSpec{Name: "氏名"}}, "名前\nx\n"},
		{"named column without header", Mapping{Columns: ColumnSpec{Name: "氏名"}}, "x\n"},
		{"bad encoding", Mapping{Format: FormatSpec{Encoding: "klingon"}, Columns: ColumnSpec{Name: "1"}}, "x\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Read(strings.NewReader(tt.data), tt.m); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestLoadMapping(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mapping.yaml")
	data := `format:
  encoding: shift_jis
columns:
  name: お客様名
  phone: TEL
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := LoadMapping(path)
	if err != nil {
		t.Fatalf("LoadMapping: %v", err)
	}
	if m.Format.Encoding != "shift_jis" || !m.Format.HasHeader || m.Format.Delimiter != "," {
		t.Errorf("unexpected format: %+v", m.Format)
	}
	if m.Columns.Name != "お客様名" || m.Columns.Phone != "TEL" || m.Columns.Email != "" {
		t.Errorf("unexpected columns: %+v", m.Columns)
	}

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(bad, []byte("columns:\n  phone: TEL\n"), 0o644)
	if _, err := LoadMapping(bad); err == nil {
		t.Fatal("expected error for mapping without name column")
	}
}

type fakeCreator struct {
	next   int64
	failOn string
	got    []client.CustomerInput
}

func (f *fakeCreator) CreateCustomer(_ context.Context, in client.CustomerInput) (*client.Customer, error) {
	if in.Name == f.failOn {
		return nil, errors.New("HTTP 422: duplicate phone")
	}
	f.got = append(f.got, in)
	f.next++
	return &client.Customer{ID: f.next, Name: in.Name}, nil
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func testRows() []Row {
	return []Row{
		{Line: 2, Input: client.CustomerInput{Name: "a"}},
		{Line: 3, Err: ErrNoName},
		{Line: 4, Input: client.CustomerInput{Name: "dup"}},
		{Line: 5, Input: client.CustomerInput{Name: "b"}},
	}
}

func TestRun(t *testing.T) {
	fc := &fakeCreator{failOn: "dup"}
	rep, err := New(fc, quietLogger(), false).Run(context.Background(), testRows())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Total != 4 || rep.Created != 2 || rep.Failed != 2 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if len(rep.IDs) != 2 || rep.IDs[1] != 2 {
		t.Errorf("ids = %v", rep.IDs)
	}
	if rep.Errors[0].Line != 3 || rep.Errors[1].Name != "dup" {
		t.Errorf("errors = %+v", rep.Errors)
	}
	if rep.String() != "4 rows, 2 created, 2 failed" {
		t.Errorf("String() = %q", rep.String())
	}
}

func TestRun_DryRun(t *testing.T) {
	rep, err := New(nil, quietLogger(), true).Run(context.Background(), testRows())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Created != 3 || rep.Failed != 1 || !rep.DryRun || len(rep.IDs) != 0 {
		t.Fatalf("unexpected report: %+v", rep)
	}
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	fc := &fakeCreator{}
	rep, err := New(fc, quietLogger(), false).Run(ctx, testRows())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if rep.Created != 0 || len(fc.got) != 0 {
		t.Fatalf("nothing should be created: %+v", rep)
	}
}
