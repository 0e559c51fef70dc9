// Package appconfig is a small typed model over a project's config.xml.
//
// Only the parts resgen touches are modeled: platform elements, their icon
// and splash children, top-level preferences and the top-level default icon.
// Everything else in the document is preserved as parsed.
package appconfig

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
	"github.com/zeebo/blake3"
)

// FileName is the configuration document name at the project root.
const FileName = "config.xml"

const (
	rootTag       = "widget"
	platformTag   = "platform"
	preferenceTag = "preference"
	iconTag       = "icon"
)

// Preferences written for Android splash screens.
const (
	PrefSplashScreen      = "SplashScreen"
	PrefSplashScreenDelay = "SplashScreenDelay"
	PrefOrientation       = "Orientation"
)

// ErrNotWidget is returned when the document root is not a widget element.
var ErrNotWidget = errors.New("root element is not <widget>")

// Attr is one attribute to set on a node, in write order.
type Attr struct {
	Key, Value string
}

// Document is a parsed config.xml.
type Document struct {
	doc    *etree.Document
	digest string
}

// Load reads and parses the document at path. A missing file is reported
// with an error wrapping os.ErrNotExist.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse parses a document held in memory.
func Parse(data []byte) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}
	root := doc.Root()
	if root == nil || root.Tag != rootTag {
		return nil, ErrNotWidget
	}
	return &Document{doc: doc, digest: Digest(data)}, nil
}

// Digest returns the hex blake3 digest of data.
func Digest(data []byte) string {
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (d *Document) root() *etree.Element {
	return d.doc.Root()
}

// Preference returns the value of the top-level preference with name.
// Names compare case-insensitively.
func (d *Document) Preference(name string) (string, bool) {
	for _, el := range d.root().SelectElements(preferenceTag) {
		if strings.EqualFold(el.SelectAttrValue("name", ""), name) {
			return el.SelectAttrValue("value", ""), true
		}
	}
	return "", false
}

// Orientation returns the lower-cased Orientation preference, or "" when
// absent.
func (d *Document) Orientation() string {
	v, _ := d.Preference(PrefOrientation)
	return strings.ToLower(strings.TrimSpace(v))
}

// EnsurePreference adds a top-level preference unless one with the same name
// exists. It reports whether the document changed.
func (d *Document) EnsurePreference(name, value string) bool {
	if _, ok := d.Preference(name); ok {
		return false
	}
	el := d.root().CreateElement(preferenceTag)
	el.CreateAttr("name", name)
	el.CreateAttr("value", value)
	return true
}

// Platform returns the platform element with name, if present.
func (d *Document) Platform(name string) *etree.Element {
	for _, el := range d.root().SelectElements(platformTag) {
		if el.SelectAttrValue("name", "") == name {
			return el
		}
	}
	return nil
}

// EnsurePlatform returns the platform element with name, creating it when
// absent.
func (d *Document) EnsurePlatform(name string) *etree.Element {
	if el := d.Platform(name); el != nil {
		return el
	}
	el := d.root().CreateElement(platformTag)
	el.CreateAttr("name", name)
	return el
}

// Nodes returns the src values of the tag children of a platform, in
// document order.
func (d *Document) Nodes(platformName, tag string) []string {
	p := d.Platform(platformName)
	if p == nil {
		return nil
	}
	var srcs []string
	for _, el := range p.SelectElements(tag) {
		srcs = append(srcs, el.SelectAttrValue("src", ""))
	}
	return srcs
}

// EnsureImageNode upserts the tag child of platform whose src matches.
// Attributes are set in the given order; existing values are overwritten.
func (d *Document) EnsureImageNode(platform *etree.Element, tag, src string, attrs []Attr) *etree.Element {
	var node *etree.Element
	for _, el := range platform.SelectElements(tag) {
		if el.SelectAttrValue("src", "") == src {
			node = el
			break
		}
	}
	if node == nil {
		node = platform.CreateElement(tag)
	}
	node.CreateAttr("src", src)
	for _, a := range attrs {
		if a.Key == "src" {
			continue
		}
		node.CreateAttr(a.Key, a.Value)
	}
	return node
}

// RemoveImageNodes drops tag children of platform for which stale returns
// true, plus any later node repeating an earlier src. It returns the number
// of removed nodes.
func (d *Document) RemoveImageNodes(platform *etree.Element, tag string, stale func(src string) bool) int {
	seen := make(map[string]bool)
	removed := 0
	for _, el := range platform.SelectElements(tag) {
		src := el.SelectAttrValue("src", "")
		if seen[src] || (stale != nil && stale(src)) {
			platform.RemoveChild(el)
			removed++
			continue
		}
		seen[src] = true
	}
	return removed
}

// DefaultIcon returns the src of the top-level icon, if any.
func (d *Document) DefaultIcon() (string, bool) {
	icons := d.root().SelectElements(iconTag)
	if len(icons) == 0 {
		return "", false
	}
	return icons[0].SelectAttrValue("src", ""), true
}

// SetDefaultIcon makes src the single top-level icon. An existing icon is
// updated in place and any extras are removed.
func (d *Document) SetDefaultIcon(src string) {
	root := d.root()
	icons := root.SelectElements(iconTag)
	if len(icons) == 0 {
		root.CreateElement(iconTag).CreateAttr("src", src)
		return
	}
	icons[0].CreateAttr("src", src)
	for _, extra := range icons[1:] {
		root.RemoveChild(extra)
	}
}

// Bytes serializes the document with four-space indentation.
func (d *Document) Bytes() ([]byte, error) {
	d.doc.Indent(4)
	data, err := d.doc.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", FileName, err)
	}
	if !bytes.HasSuffix(data, []byte("\n")) {
		data = append(data, '\n')
	}
	return data, nil
}

// Changed reports whether serializing now would differ from the bytes the
// document was parsed from.
func (d *Document) Changed() (bool, error) {
	data, err := d.Bytes()
	if err != nil {
		return false, err
	}
	return Digest(data) != d.digest, nil
}

// Save writes the document to path atomically. When the serialized bytes
// match what was parsed, the file is left untouched and Save reports false.
func (d *Document) Save(path string) (bool, error) {
	data, err := d.Bytes()
	if err != nil {
		return false, err
	}
	digest := Digest(data)
	if digest == d.digest {
		return false, nil
	}

	if err := writeAtomic(path, data); err != nil {
		return false, err
	}
	d.digest = digest
	return true, nil
}

func writeAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() { os.Remove(tmp.Name()) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		cleanup()
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
