package furigana

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/goccy/go-json"
)

// ErrHeaderMismatch はTSVファイルの見出し行が一致しないことを表す
var ErrHeaderMismatch = errors.New("TSVファイルの見出し行が一致しません")

// Store は起動時に読み込んだふりがなデータベース。読み取り専用。
type Store struct {
	path    string
	records []Record
}

// Load はTSVファイルを読み込む。
// ファイルがない場合や空の場合は見出し行だけのファイルを作成し、空のデータベースを返す。
func Load(path string) (*Store, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := WriteFile(path, nil); err != nil {
			return nil, err
		}
		return &Store{path: path, records: []Record{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("TSVファイルのオープンに失敗: %w", err)
	}
	lines, err := readLines(f)
	_ = f.Close()
	if err != nil {
		return nil, fmt.Errorf("%s: TSVファイルの読み込みに失敗: %w", path, err)
	}

	if len(lines) == 0 {
		if err := WriteFile(path, nil); err != nil {
			return nil, err
		}
		return &Store{path: path, records: []Record{}}, nil
	}

	if header := lines[0]; header.text != HeaderRow() {
		return nil, fmt.Errorf("%w: %s:%d: %q", ErrHeaderMismatch, path, header.no, header.text)
	}

	records := make([]Record, 0, len(lines)-1)
	for _, l := range lines[1:] {
		record, err := ParseRow(l.text)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, l.no, err)
		}
		records = append(records, record)
	}

	return &Store{path: path, records: records}, nil
}

// Path は読み込んだファイルのパスを返す
func (s *Store) Path() string {
	return s.path
}

// Len はレコード数を返す
func (s *Store) Len() int {
	return len(s.records)
}

// Records はレコードのコピーをファイルの順に返す
func (s *Store) Records() []Record {
	return append([]Record(nil), s.records...)
}

// JSON は全レコードをJSON配列に変換する。HTMLや非ASCII文字はエスケープしない。
func (s *Store) JSON() ([]byte, error) {
	records := s.records
	if records == nil {
		records = []Record{}
	}
	return json.MarshalWithOption(records, json.DisableHTMLEscape())
}
