package letter

import (
	"fmt"
	"strings"
)

// NoPointsMarker is the phrase the cooperation prompt asks the model
// to emit when it finds nothing. Note this collapses a confirmed
// negative and an outright call failure into the same downstream
// sentinel; both mean "write the letter without specific points".
const NoPointsMarker = "no cooperation points identified"

// ExtractPrompt asks for a short business summary of raw site content.
func ExtractPrompt(siteContent string) string {
	return fmt.Sprintf(`Analyze the following website content and describe the company's main business in one or two sentences.
Focus only on the primary activity, products or services. Ignore navigation, cookie notices and other boilerplate.

Website content:
---
%s
---

Main business description:`, siteContent)
}

// CooperatePrompt asks for concrete cooperation points between the
// sender profile and the target's extracted business summary.
func CooperatePrompt(senderProfile, targetBusiness string) string {
	return fmt.Sprintf(`Compare the two business descriptions below and list concrete potential cooperation points between the companies.
If there are none, answer exactly: %s

Sender company:
---
%s
---

Target company:
---
%s
---

Potential cooperation points:`, NoPointsMarker, senderProfile, targetBusiness)
}

// DraftInput carries everything the draft prompt needs for one record.
type DraftInput struct {
	CompanyName       string
	ContactName       string
	CooperationPoints string
	Locale            string
	AssetCount        int
}

// DraftPrompt asks for a complete outreach letter in the resolved
// locale, with the subject/body separator contract and numbered image
// placeholders the assembler replaces later.
func DraftPrompt(in DraftInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a professional business outreach letter to %s at %s, in %s.\n\n",
		in.ContactName, in.CompanyName, in.Locale)
	fmt.Fprintf(&b, "Base the letter on these potential cooperation points:\n---\n%s\n---\n\n", in.CooperationPoints)
	b.WriteString("Requirements:\n")
	b.WriteString("- Three to four short paragraphs, formatted as simple HTML using <p> tags.\n")
	fmt.Fprintf(&b, "- Insert the literal placeholders %s between paragraphs.\n", placeholderList(in.AssetCount))
	b.WriteString("- Close with a call to action suggesting a brief meeting.\n")
	fmt.Fprintf(&b, "- Output the subject line first, then the line %s, then the HTML body.\n", BodySeparator)
	return b.String()
}

func placeholderList(n int) string {
	parts := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		parts = append(parts, Placeholder(i))
	}
	return strings.Join(parts, ", ")
}

// Placeholder returns the i-th inline image marker, 1-based.
func Placeholder(i int) string {
	return fmt.Sprintf("[IMAGE%d]", i)
}
