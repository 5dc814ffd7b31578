package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeHTML = "text/html"
	MimeText = "text/plain"
)

// ErrUnsupportedFormat is returned for file types the importer cannot read.
var ErrUnsupportedFormat = errors.New("unsupported file format")

// errDocumentTooLarge 表示 DOCX 正文解压后超过 maxDocumentXMLBytes。
var errDocumentTooLarge = errors.New("word/document.xml exceeds size limit")

// maxDocumentXMLBytes 限制 DOCX 正文解压后的大小，防止压缩炸弹。
var maxDocumentXMLBytes int64 = 32 << 20

// FileError 表示文件类型可识别但内容无法解析（损坏的 PDF/DOCX 等）。
type FileError struct {
	Format string
	Err    error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("read %s: %v", e.Format, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

var blankRuns = regexp.MustCompile(`\n{3,}`)

// TextFromFile converts an uploaded resume into plain text for Extract.
// The format is chosen from the declared mime type, the file extension and
// finally the content itself.
func TextFromFile(ctx context.Context, data []byte, mimeType, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if len(data) == 0 {
		return "", &FileError{Format: "file", Err: errors.New("empty file")}
	}

	format := DetectFormat(data, mimeType, fileName)
	var (
		text string
		err  error
	)
	switch format {
	case MimePDF:
		text, err = pdfText(data)
	case MimeDOCX:
		text, err = docxText(data)
	case MimeHTML:
		text, err = htmlText(data)
	case MimeText:
		text, err = plainText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return "", &FileError{Format: format, Err: err}
	}
	return tidyText(text), nil
}

// DetectFormat normalises the declared mime type and falls back to the
// extension and content sniffing when the client sent something generic.
func DetectFormat(data []byte, mimeType, fileName string) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch clean {
	case MimePDF, MimeDOCX, MimeHTML, MimeText:
		return clean
	case "text/markdown", "text/x-markdown":
		return MimeText
	case "application/xhtml+xml":
		return MimeHTML
	}

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return MimePDF
	case ".docx":
		return MimeDOCX
	case ".html", ".htm":
		return MimeHTML
	case ".txt", ".md", ".text":
		return MimeText
	}

	if isDOCX(data) {
		return MimeDOCX
	}
	sniffed := strings.Split(http.DetectContentType(data), ";")[0]
	switch sniffed {
	case MimePDF, MimeHTML, MimeText:
		return sniffed
	}
	if clean != "" {
		return clean
	}
	return sniffed
}

func pdfText(data []byte) (text string, err error) {
	// ledongthuc/pdf panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("parse pdf: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := r.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func isDOCX(data []byte) bool {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}

func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	var doc *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			doc = f
			break
		}
	}
	if doc == nil {
		return "", errors.New("word/document.xml not found")
	}
	if doc.UncompressedSize64 > uint64(maxDocumentXMLBytes) {
		return "", errDocumentTooLarge
	}
	rc, err := doc.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	// 头部记录的大小可以伪造，读取时再限制一次。
	limited := &io.LimitedReader{R: rc, N: maxDocumentXMLBytes + 1}
	decoder := xml.NewDecoder(limited)
	var sb strings.Builder
	for {
		tok, err := decoder.Token()
		if limited.N <= 0 {
			return "", errDocumentTooLarge
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decode document.xml: %w", err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.StartElement:
			if t.Name.Local == "tab" {
				sb.WriteByte(' ')
			}
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				sb.WriteByte('\n')
			}
		}
	}
	return sb.String(), nil
}

// htmlText 去掉 script/style，块级元素之间补换行后取纯文本。
func htmlText(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript, head").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("p, div, li, h1, h2, h3, h4, h5, h6, tr, section, header, article, ul, ol").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("• ")
	})
	return doc.Text(), nil
}

// plainText 接受 UTF-8，以及带 BOM 的 UTF-16；无法解码的字节过多时视为二进制文件。
func plainText(data []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return "", err
	}
	if invalid := strings.Count(string(out), string(utf8.RuneError)); invalid > 0 && invalid*100 > utf8.RuneCount(out) {
		return "", errors.New("content is not text")
	}
	return string(out), nil
}

func tidyText(text string) string {
	lines := splitLines(text)
	for i, l := range lines {
		lines[i] = strings.Join(strings.Fields(l), " ")
	}
	return strings.TrimSpace(blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
}
