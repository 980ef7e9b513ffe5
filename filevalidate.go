// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package audiocore

import (
	"bytes"
	"path/filepath"
	"strings"
)

// This file is deliberately stdlib-only: container signature sniffing
// is a handful of byte-prefix comparisons and path containment checks,
// and no library in the example pack does that usefully — pulling one
// in would add a dependency surface for something bytes.HasPrefix and
// path/filepath already do exactly.

// containerSignature pairs a magic-byte prefix (at a given offset) with
// the container format it identifies.
type containerSignature struct {
	offset int
	magic  []byte
}

// containerSignatures covers the signatures that are a plain fixed
// prefix match. MPEG frame sync and RIFF/WAVE need extra logic (a bit
// mask, and a second form-type check) and are handled separately in
// matchesContainer.
var containerSignatures = []containerSignature{
	{0, []byte("ID3")},  // MP3 w/ ID3 tag
	{0, []byte("fLaC")}, // FLAC
	{0, []byte("OggS")}, // Ogg
	{4, []byte("ftyp")}, // ISO-BMFF (MP4/M4A)
}

// matchesMPEGFrameSync reports whether the header begins with an MPEG
// audio frame sync: 11 set bits, i.e. 0xFF followed by a byte whose top
// 3 bits are all set (0xE0 mask), per spec's "FF Fx".
func matchesMPEGFrameSync(header []byte) bool {
	return len(header) >= 2 && header[0] == 0xFF && header[1]&0xE0 == 0xE0
}

// matchesRIFFWave additionally requires the WAVE form type at offset 8,
// not just the RIFF tag, to avoid accepting other RIFF-based formats
// (AVI, WebP) as audio containers.
func matchesRIFFWave(header []byte) bool {
	return len(header) >= 12 && bytes.Equal(header[0:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WAVE"))
}

// matchesContainer reports whether header matches any allowed audio
// container signature.
func matchesContainer(header []byte) bool {
	if matchesMPEGFrameSync(header) {
		return true
	}
	if bytes.HasPrefix(header, []byte("RIFF")) {
		return matchesRIFFWave(header)
	}
	for _, sig := range containerSignatures {
		end := sig.offset + len(sig.magic)
		if len(header) < end {
			continue
		}
		if bytes.Equal(header[sig.offset:end], sig.magic) {
			return true
		}
	}
	return false
}

// ValidateContainer gates admission of a decoded-audio file per spec
// §6: magic-byte signature, extension allow-list, maximum file size,
// and sandbox root containment. It is the file-validator collaborator
// the spec calls out as "not implemented by the core" conceptually,
// but ships here as stdlib-only logic, since no ecosystem dependency
// does signature sniffing for us. The signature is not checked against
// the extension: any allowed signature passes with any allowed
// extension.
func ValidateContainer(path string, header []byte, size int64, cfg SecurityConfig) error {
	if cfg.MaxFileSizeBytes > 0 && size > cfg.MaxFileSizeBytes {
		return ErrFileTooLarge
	}

	ext := strings.ToLower(filepath.Ext(path))
	if len(cfg.AllowedExtensions) > 0 && !containsFold(cfg.AllowedExtensions, ext) {
		return ErrContentMismatch
	}

	if !matchesContainer(header) {
		return ErrContentMismatch
	}

	if cfg.SandboxRoot != "" {
		if err := checkSandbox(cfg.SandboxRoot, path); err != nil {
			return err
		}
	}

	return nil
}

func containsFold(list []string, ext string) bool {
	for _, e := range list {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

// checkSandbox rejects ".." segments outright (symlink resolution
// happens later, at open time — this is a defense-in-depth string
// check, not the only guard) and then requires the cleaned absolute
// path to sit under root.
func checkSandbox(root, path string) error {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if seg == ".." {
			return ErrPathTraversal
		}
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	absRoot = filepath.Clean(absRoot)
	absPath = filepath.Clean(absPath)

	if absPath != absRoot && !strings.HasPrefix(absPath, absRoot+string(filepath.Separator)) {
		return ErrSandboxViolation
	}
	return nil
}
