package grader

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"html-grader/internal/config"
	"html-grader/internal/fetcher"
)

// ErrInvalidSelector возвращается, если строку из файла проверок нельзя скомпилировать
var ErrInvalidSelector = errors.New("invalid selector")

// CheckPresence разбирает HTML и проверяет каждый селектор на наличие хотя бы одного элемента.
// Селекторы сортируются, дубликаты схлопываются в один ключ.
func CheckPresence(htmlContent []byte, checks []string) (*Result, error) {
	sorted := slices.Clone(checks)
	slices.SortFunc(sorted, compareUTF16)
	sorted = slices.Compact(sorted)

	matchers := make([]cascadia.Selector, len(sorted))
	for i, check := range sorted {
		sel, err := cascadia.Compile(check)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %v", ErrInvalidSelector, check, err)
		}
		matchers[i] = sel
	}

	// html.Parse не падает на битой разметке, ошибка возможна только от reader
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	result := &Result{entries: make([]Entry, 0, len(sorted))}
	for i, check := range sorted {
		result.entries = append(result.entries, Entry{
			Selector: check,
			Present:  doc.FindMatcher(matchers[i]).Length() > 0,
		})
	}

	return result, nil
}

// compareUTF16 сравнивает строки по кодовым единицам UTF-16, как сортировка строк в браузере.
// Порядок байт UTF-8 расходится с ним для символов выше U+FFFF.
func compareUTF16(a, b string) int {
	if c := slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b))); c != 0 {
		return c
	}
	return strings.Compare(a, b)
}

// CheckHTMLContent проверяет уже загруженный HTML по файлу проверок
func CheckHTMLContent(htmlContent []byte, checksFile string) (*Result, error) {
	checks, err := config.LoadChecks(checksFile)
	if err != nil {
		return nil, err
	}
	return CheckPresence(htmlContent, checks)
}

// CheckHTMLFile проверяет локальный HTML файл по файлу проверок
func CheckHTMLFile(htmlFile, checksFile string) (*Result, error) {
	htmlContent, err := fetcher.ReadLocalHTML(htmlFile)
	if err != nil {
		return nil, err
	}
	return CheckHTMLContent(htmlContent, checksFile)
}
