package comprobante

import (
	"bytes"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/charmap"

	"3tcapital/ms_comprobantes_sri/internal/core/comprobante"
)

// xmlDeclaration matches a leading <?xml ... ?> processing instruction.
var xmlDeclaration = regexp.MustCompile(`<\?xml.*?\?>`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Normalize locates the voucher element inside raw and decides its type.
//
// Manually exported vouchers carry the document at the root. Responses of
// the SRI authorization web service nest the signed voucher as text (CDATA
// or escaped markup) inside an element whose tag contains "comprobante";
// that inner document is parsed and returned instead of the envelope.
func Normalize(raw []byte) (*etree.Element, comprobante.DocumentType, error) {
	root, err := parseDocument(raw)
	if err != nil {
		return nil, "", comprobante.NewExtractionError(comprobante.ErrUnparseable, "", err)
	}

	var detector comprobante.TypeDetector
	subtree := findEmbedded(root, &detector)
	if subtree == nil {
		subtree = root
	} else {
		observeTags(subtree, &detector)
	}

	tipo := detector.Type()
	if t, ok := comprobante.TypeFromRootTag(subtree.Tag); ok {
		tipo = t
	}
	return subtree, tipo, nil
}

// parseDocument parses raw as XML. Bytes that are not valid UTF-8 are
// re-decoded as Windows-1252 before a second attempt.
func parseDocument(raw []byte) (*etree.Element, error) {
	data := bytes.TrimPrefix(raw, utf8BOM)

	root, err := readRoot(data)
	if err == nil {
		return root, nil
	}
	if utf8.Valid(data) {
		return nil, err
	}

	decoded, decErr := charmap.Windows1252.NewDecoder().Bytes(data)
	if decErr != nil {
		return nil, err
	}
	root, retryErr := readRoot([]byte(stripDeclaration(string(decoded))))
	if retryErr != nil {
		return nil, retryErr
	}
	return root, nil
}

func readRoot(data []byte) (*etree.Element, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	root := doc.Root()
	if root == nil {
		return nil, errors.New("documento sin elemento raíz")
	}
	return root, nil
}

// findEmbedded walks e depth-first in document order, feeding every tag to
// the detector, and returns the first inner document that parses.
func findEmbedded(e *etree.Element, detector *comprobante.TypeDetector) *etree.Element {
	detector.Observe(e.Tag)

	if strings.Contains(strings.ToLower(e.Tag), "comprobante") {
		if text := e.Text(); strings.Contains(text, "<") {
			if inner, err := readRoot([]byte(stripDeclaration(text))); err == nil {
				return inner
			}
		}
	}

	for _, child := range e.ChildElements() {
		if inner := findEmbedded(child, detector); inner != nil {
			return inner
		}
	}
	return nil
}

func observeTags(e *etree.Element, detector *comprobante.TypeDetector) {
	detector.Observe(e.Tag)
	for _, child := range e.ChildElements() {
		observeTags(child, detector)
	}
}

func stripDeclaration(text string) string {
	return strings.TrimSpace(xmlDeclaration.ReplaceAllString(text, ""))
}
