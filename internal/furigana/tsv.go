package furigana

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// maxLineSize は1行あたりの最大バイト数
const maxLineSize = 16 * 1024 * 1024

// Write は見出し行とレコードをTSV形式で書き出す
func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(HeaderRow() + "\n"); err != nil {
		return err
	}
	for _, r := range records {
		if _, err := bw.WriteString(r.TSVRow() + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile はTSVファイルを作成（または上書き）する
func WriteFile(path string, records []Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("TSVファイルの作成に失敗: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("TSVファイルのクローズに失敗: %w", cerr)
		}
	}()

	if err := Write(f, records); err != nil {
		return fmt.Errorf("TSVファイルの書き込みに失敗: %w", err)
	}
	return nil
}

// line は空行を除いた行とその行番号
type line struct {
	no   int
	text string
}

// readLines は改行コードを除いた空でない行を読み込む
func readLines(r io.Reader) ([]line, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var lines []line
	no := 0
	for scanner.Scan() {
		no++
		if text := scanner.Text(); text != "" {
			lines = append(lines, line{no: no, text: text})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
