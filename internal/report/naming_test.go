package report

import (
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestDefaultOutputName(t *testing.T) {
	now := time.Date(2026, 10, 17, 9, 30, 5, 0, time.Local)

	tests := []struct {
		name   string
		inputs []string
		ext    string
		want   string
	}{
		{"single", []string{"/data/ch1.csv"}, "xlsx", "zero_crossing_results_ch1_20261017_093005.xlsx"},
		{"several", []string{"ch1.csv", "ch2.csv"}, ".xlsx", "zero_crossing_results_ch1_and_others_20261017_093005.xlsx"},
		{"japanese", []string{"測定.csv"}, "pdf", "zero_crossing_results_測定_20261017_093005.pdf"},
		{"no inputs", nil, "db", "zero_crossing_results_batch_20261017_093005.db"},
		{"no extension", []string{"ch1.csv"}, "", "zero_crossing_results_ch1_20261017_093005"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultOutputName(tt.inputs, now, tt.ext))
		})
	}
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "ch1", SheetName("ch1.csv"))
	assert.Equal(t, "a_b_c_d", SheetName("a[b]c:d.csv"))
	assert.Equal(t, "x_y_z", SheetName(`x/y\z`))
	assert.Equal(t, "Sheet", SheetName("''"))

	long := SheetName("一二三四五六七八九十一二三四五六七八九十一二三四五六七八九十一二三四五.csv")
	assert.Equal(t, 31, utf8.RuneCountInString(long))
}

func TestUniqueSheetNames(t *testing.T) {
	got := UniqueSheetNames([]string{"a.csv", "A.csv", "a.csv", "b.csv"})
	assert.Equal(t, []string{"a", "A (2)", "a (3)", "b"}, got)

	long := "abcdefghijklmnopqrstuvwxyz01234567.csv"
	got = UniqueSheetNames([]string{long, long})
	assert.Equal(t, "abcdefghijklmnopqrstuvwxyz01234", got[0])
	assert.Equal(t, "abcdefghijklmnopqrstuvwxyz0 (2)", got[1])
	assert.Equal(t, 31, utf8.RuneCountInString(got[1]))
}
