package letter

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
)

// Artifact is one composed outreach mail, ready for filing.
type Artifact struct {
	From    string
	To      string
	Subject string

	// BodyHTML may contain [IMAGEn] placeholders; Encode replaces them
	// with cid references to the inline images.
	BodyHTML string

	// InlineImages are file paths embedded into the body, in
	// placeholder order.
	InlineImages []string

	// Attachments are file paths attached as-is (e.g. a brochure).
	Attachments []string
}

// Encode renders the artifact as a multipart/related RFC 822 message.
// A placeholder with no matching image, or an unreadable image file,
// degrades to a warning rather than failing the artifact.
func (a Artifact) Encode() ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fmt.Fprintf(&buf, "From: %s\r\n", a.From)
	fmt.Fprintf(&buf, "To: %s\r\n", a.To)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", a.Subject))
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: multipart/related; boundary=%q\r\n\r\n", mw.Boundary())

	body := a.BodyHTML
	type inline struct {
		cid  string
		path string
	}
	var inlines []inline
	for i, path := range a.InlineImages {
		placeholder := Placeholder(i + 1)
		cid := fmt.Sprintf("image%d", i+1)
		tag := fmt.Sprintf(`<img src="cid:%s" alt=%q style="max-width: 100%%; height: auto; display: block;"><br>`,
			cid, filepath.Base(path))
		if !strings.Contains(body, placeholder) {
			slog.Warn("placeholder not found in letter body", "placeholder", placeholder)
			continue
		}
		body = strings.ReplaceAll(body, placeholder, tag)
		inlines = append(inlines, inline{cid: cid, path: path})
	}

	htmlHeader := textproto.MIMEHeader{}
	htmlHeader.Set("Content-Type", "text/html; charset=utf-8")
	pw, err := mw.CreatePart(htmlHeader)
	if err != nil {
		return nil, err
	}
	if _, err := pw.Write([]byte(body)); err != nil {
		return nil, err
	}

	for _, img := range inlines {
		if err := writeFilePart(mw, img.path, func(h textproto.MIMEHeader) {
			subtype := strings.TrimPrefix(strings.ToLower(filepath.Ext(img.path)), ".")
			h.Set("Content-Type", "image/"+subtype)
			// Set direct: MIMEHeader.Set would re-case the key to "Content-Id".
			h["Content-ID"] = []string{"<" + img.cid + ">"}
			h.Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filepath.Base(img.path)))
		}); err != nil {
			return nil, err
		}
	}

	for _, att := range a.Attachments {
		if err := writeFilePart(mw, att, func(h textproto.MIMEHeader) {
			h.Set("Content-Type", "application/octet-stream")
			h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filepath.Base(att)))
		}); err != nil {
			return nil, err
		}
	}

	if err := mw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeFilePart(mw *multipart.Writer, path string, setHeaders func(textproto.MIMEHeader)) error {
	data, err := os.ReadFile(path)
	if err != nil {
		slog.Warn("skipping unreadable artifact part", "path", path, "error", err)
		return nil
	}
	h := textproto.MIMEHeader{}
	setHeaders(h)
	h.Set("Content-Transfer-Encoding", "base64")
	pw, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	enc := base64.StdEncoding.EncodeToString(data)
	// 76-char lines per RFC 2045.
	for len(enc) > 0 {
		n := 76
		if n > len(enc) {
			n = len(enc)
		}
		if _, err := pw.Write([]byte(enc[:n] + "\r\n")); err != nil {
			return err
		}
		enc = enc[n:]
	}
	return nil
}
