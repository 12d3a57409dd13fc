// Package furigana はふりがなデータベース（TSVファイル）の読み書きを担う
//
// データベースは起動時に一度だけ読み込み、以降は変更しない。
package furigana

import (
	"errors"
	"fmt"
	"strings"
)

// Columns はTSVの列名（列の並び順）
var Columns = []string{"word", "furigana", "meaning", "note", "ruby"}

// ErrTooManyColumns は行の列数が多すぎることを表す
var ErrTooManyColumns = errors.New("TSVの列数が多すぎます")

var (
	escaper   = strings.NewReplacer("\t", `\t`, "\n", `\n`)
	unescaper = strings.NewReplacer(`\t`, "\t", `\n`, "\n")
)

// Record はふりがなデータベースの1行
type Record struct {
	Word     string `json:"word"`
	Furigana string `json:"furigana"`
	Meaning  string `json:"meaning"`
	Note     string `json:"note"`
	Ruby     string `json:"ruby"`
}

// Escape はセル内のタブと改行を "\t" と "\n" に置き換える
func Escape(s string) string {
	return escaper.Replace(s)
}

// Unescape は Escape の逆変換を行う
func Unescape(s string) string {
	return unescaper.Replace(s)
}

// HeaderRow はTSVファイルの1行目に書く見出し行を返す
func HeaderRow() string {
	return joinCells(Columns)
}

// Cells はレコードを列の順に並べる
func (r Record) Cells() []string {
	return []string{r.Word, r.Furigana, r.Meaning, r.Note, r.Ruby}
}

// TSVRow はレコードをエスケープ済みの1行に変換する
func (r Record) TSVRow() string {
	return joinCells(r.Cells())
}

// ParseRow はTSVの1行をレコードに変換する。
// 列が足りない場合は空文字で補い、多すぎる場合はエラーを返す。
func ParseRow(line string) (Record, error) {
	cells := strings.Split(line, "\t")
	if len(cells) > len(Columns) {
		return Record{}, fmt.Errorf("%w: %d列 (最大 %d列)", ErrTooManyColumns, len(cells), len(Columns))
	}
	for len(cells) < len(Columns) {
		cells = append(cells, "")
	}

	return Record{
		Word:     Unescape(cells[0]),
		Furigana: Unescape(cells[1]),
		Meaning:  Unescape(cells[2]),
		Note:     Unescape(cells[3]),
		Ruby:     Unescape(cells[4]),
	}, nil
}

func joinCells(cells []string) string {
	escaped := make([]string, len(cells))
	for i, cell := range cells {
		escaped[i] = Escape(cell)
	}
	return strings.Join(escaped, "\t")
}
