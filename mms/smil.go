/*
 * Copyright 2024 FuriLabs
 *
 * This file is part of mmsd4ofono.
 *
 * mmsd4ofono is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; version 3.
 *
 * mmsd4ofono is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package mms

import (
	"fmt"
	"regexp"
	"strings"
)

// SMILRef is a media reference found in a SMIL body.
type SMILRef struct {
	Tag string
	Src string
}

var smilSrcPattern = regexp.MustCompile(`<(\w+)\s+[^>]*src="([^"]*)"`)
var smilSpacePattern = regexp.MustCompile(`\s+`)

// ExtractSMILRefs returns the media references of a SMIL document in
// document order. Parts of a multipart.related body are conventionally
// laid out in that same order, so the index of a reference matches the
// index of its data part.
func ExtractSMILRefs(smil string) []SMILRef {
	matches := smilSrcPattern.FindAllStringSubmatch(smil, -1)
	refs := make([]SMILRef, 0, len(matches))
	for _, m := range matches {
		refs = append(refs, SMILRef{Tag: m[1], Src: m[2]})
	}
	return refs
}

// NormalizeSMIL collapses all whitespace runs to single spaces; the
// stored and exported SMIL is a single line.
func NormalizeSMIL(smil string) string {
	return strings.TrimSpace(smilSpacePattern.ReplaceAllString(smil, " "))
}

// GenerateSMIL builds a minimal SMIL presentation referencing every
// attachment, one slide per media pairing.
func GenerateSMIL(attachments []*Attachment) string {
	var body strings.Builder
	for i := range attachments {
		name := attachments[i].ContentLocation
		if name == "" {
			name = attachments[i].ContentId
		}
		switch {
		case strings.HasPrefix(attachments[i].MediaType, "text/"):
			fmt.Fprintf(&body, `<par dur="3s"><text src="%s" region="Text"/></par>`, name)
		case strings.HasPrefix(attachments[i].MediaType, "image/"):
			fmt.Fprintf(&body, `<par dur="5000ms"><img src="%s" region="Image"/></par>`, name)
		case strings.HasPrefix(attachments[i].MediaType, "audio/"):
			fmt.Fprintf(&body, `<par dur="5000ms"><audio src="%s"/></par>`, name)
		case strings.HasPrefix(attachments[i].MediaType, "video/"):
			fmt.Fprintf(&body, `<par dur="5000ms"><video src="%s" region="Image"/></par>`, name)
		}
	}
	return `<smil><head><layout><root-layout width="320px" height="480px"/>` +
		`<region id="Image" left="0" top="0" width="320px" height="320px" fit="meet"/>` +
		`<region id="Text" left="0" top="320" width="320px" height="160px" fit="meet"/>` +
		`</layout></head><body>` + body.String() + `</body></smil>`
}
