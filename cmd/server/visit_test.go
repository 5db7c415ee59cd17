package main

import (
	"bytes"
	"flag"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/rebeauty/pkg/client"
	"github.com/hazyhaar/rebeauty/pkg/visit"
)

func TestItemFlags(t *testing.T) {
	var f itemFlags
	for _, v := range []string{"化粧水", "スキンケア：美容液", " マスカラ "} {
		if err := f.Set(v); err != nil {
			t.Fatalf("Set(%q): %v", v, err)
		}
	}
	if got := f.String(); got != "化粧水,美容液,マスカラ" {
		t.Errorf("items = %q", got)
	}
	if err := f.Set("その他："); err == nil {
		t.Error("empty product accepted")
	}
}

func parseDraftFlags(t *testing.T, args ...string) (*flag.FlagSet, *draftFlags) {
	t.Helper()
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	df := newDraftFlags(fs)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("parse %v: %v", args, err)
	}
	return fs, df
}

func TestDraftFlags_Add(t *testing.T) {
	now := time.Date(2026, 3, 9, 15, 0, 0, 0, time.Local)

	fs, df := parseDraftFlags(t, "--item", "化粧水", "--item", "リップ", "--memo", "初回")
	in, err := df.apply(fs, newDraft(now, 4)).ToCreate(12)
	if err != nil {
		t.Fatalf("ToCreate: %v", err)
	}
	if in.CustomerID != 12 || in.VisitDate != "2026-03-09" || in.StaffID == nil || *in.StaffID != 4 {
		t.Errorf("payload = %+v", in)
	}
	if len(in.Items) != 2 || in.Items[0].Category != visit.CategorySkincare || in.Items[1].Category != visit.CategoryMakeup {
		t.Errorf("items = %+v", in.Items)
	}
	if in.Memo == nil || *in.Memo != "初回" {
		t.Errorf("memo = %v", in.Memo)
	}

	fs, df = parseDraftFlags(t, "--memo", "x")
	if _, err := df.apply(fs, newDraft(now, 4)).ToCreate(12); err != visit.ErrNoItems {
		t.Errorf("err = %v, want ErrNoItems", err)
	}
}

func TestDraftFlags_EditKeepsUnsetFields(t *testing.T) {
	staff := int64(3)
	cur := client.Visit{
		ID:        50,
		VisitDate: "2026-03-01",
		Memo:      "前回",
		StaffID:   &staff,
		Items:     []client.VisitItem{{Category: visit.CategorySkincare, ProductName: "洗顔"}},
	}

	fs, df := parseDraftFlags(t, "--date", "2026/03/02")
	upd, err := df.apply(fs, visit.FromVisit(cur)).ToUpdate()
	if err != nil {
		t.Fatalf("ToUpdate: %v", err)
	}
	if upd.VisitDate != "2026-03-02" || *upd.StaffID != 3 || *upd.Memo != "前回" {
		t.Errorf("update = %+v", upd)
	}
	if len(upd.Items) != 1 || upd.Items[0].ProductName != "洗顔" {
		t.Errorf("items = %+v", upd.Items)
	}

	fs, df = parseDraftFlags(t, "--item", "パック", "--staff", "9")
	upd, err = df.apply(fs, visit.FromVisit(cur)).ToUpdate()
	if err != nil {
		t.Fatalf("ToUpdate: %v", err)
	}
	if *upd.StaffID != 9 || len(upd.Items) != 1 || upd.Items[0].ProductName != "パック" {
		t.Errorf("update = %+v", upd)
	}
}

func TestFindVisit(t *testing.T) {
	visits := []client.Visit{{ID: 1}, {ID: 2}}
	if v, ok := findVisit(visits, 2); !ok || v.ID != 2 {
		t.Errorf("findVisit(2) = %+v, %v", v, ok)
	}
	if _, ok := findVisit(visits, 3); ok {
		t.Error("findVisit(3) should miss")
	}
}

func TestWriteVisits(t *testing.T) {
	var buf bytes.Buffer
	writeVisits(&buf, nil)
	if buf.String() != "No visits\n" {
		t.Errorf("empty history = %q", buf.String())
	}

	staff := int64(3)
	buf.Reset()
	writeVisits(&buf, []client.Visit{
		{ID: 50, VisitDate: "2026-03-01", StaffID: &staff, Memo: "前回", Items: []client.VisitItem{
			{Category: visit.CategorySkincare, ProductName: "洗顔"},
			{Category: visit.CategoryOther},
		}},
		{ID: 51, VisitDate: "2026-03-08"},
	})
	out := buf.String()
	for _, want := range []string{
		"#50    2026/03/01  staff 3\n",
		"       スキンケア：洗顔\n",
		"       その他\n",
		"       memo: 前回\n",
		"#51    2026/03/08  staff -\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestWriteCatalog(t *testing.T) {
	var buf bytes.Buffer
	writeCatalog(&buf)
	if !strings.HasPrefix(buf.String(), "スキンケア: クレンジング, 洗顔") {
		t.Errorf("catalog = %q", buf.String())
	}
}
