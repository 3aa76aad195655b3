// Package testdata читает табличные данные для параметризованных тестов.
package testdata

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

var ErrNoHeader = errors.New("в листе нет строки заголовков")

// Row - строка таблицы: заголовок колонки -> значение ячейки.
type Row map[string]string

func (r Row) Get(key string) string {
	return r[key]
}

// ReadSheet читает лист sheet из .xlsx файла. Первая строка - заголовки,
// колонки без заголовка пропускаются, недостающие ячейки дают "".
func ReadSheet(path, sheet string) ([]Row, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("открытие %s: %w", path, err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("лист %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("лист %q: %w", sheet, ErrNoHeader)
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	data := make([]Row, 0, len(rows)-1)
	for _, cells := range rows[1:] {
		if blank(cells) {
			continue
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if i < len(cells) {
				row[h] = cells[i]
			} else {
				row[h] = ""
			}
		}
		data = append(data, row)
	}
	return data, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
