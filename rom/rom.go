// Package rom loads VIC-20 ROM packages: a zip archive whose root holds
// index.json plus one binary file per ROM part. No archive or JSON
// library appears anywhere in the retrieved example pack to prefer
// over the standard library here, so this package uses archive/zip and
// encoding/json directly (see DESIGN.md for the stdlib-fallback note).
package rom

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
)

// FileType names the role a ROM part plays in the memory map.
type FileType string

const (
	Kernal    FileType = "kernal"
	Basic     FileType = "basic"
	Character FileType = "character"
	Cartridge FileType = "cartridge"
)

// Region names the market/hardware variant a ROM part targets.
type Region string

const (
	RegionDefault  Region = "default"
	RegionNTSC     Region = "ntsc"
	RegionPAL      Region = "pal"
	RegionJapan    Region = "japan"
	RegionDenmark  Region = "denmark"
	RegionSweden   Region = "sweden"
)

// Entry is one index.json record describing a ROM part (or an ordered
// set of parts, for multi-file cartridges).
type Entry struct {
	Name      string   `json:"name"`
	FileNames []string `json:"fileNames"`
	FileType  FileType `json:"fileType"`
	Memory    string   `json:"memory"`
	Region    Region   `json:"region"`
	Publisher string   `json:"publisher,omitempty"`
	Year      string   `json:"year,omitempty"`
	Status    string   `json:"status,omitempty"`
	Comments  string   `json:"comments,omitempty"`
}

// Image is one loaded ROM binary: the two-byte little-endian load
// address the file declared, and the payload that follows it.
type Image struct {
	LoadAddress uint16
	Data        []uint8
}

// Set is the collection of ROM images a Machine needs to boot: the
// region-specific kernals, the default BASIC and character ROMs, and
// an optional cartridge.
type Set struct {
	KernalPAL        Image
	KernalNTSC       Image
	BasicDefault     Image
	CharacterDefault Image
	Cartridge        *Image
}

// Load opens the zip archive at path, parses its index.json, and loads
// every entry's binary parts. It returns an error if the package is
// missing any of the four mandatory entries (PAL kernal, NTSC kernal,
// default BASIC, default character).
func Load(path string) (*Set, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("can't open ROM package %q: %v", path, err)
	}
	defer zr.Close()

	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}

	idxFile, ok := files["index.json"]
	if !ok {
		return nil, fmt.Errorf("ROM package %q has no index.json", path)
	}
	idxData, err := readZipFile(idxFile)
	if err != nil {
		return nil, fmt.Errorf("can't read index.json: %v", err)
	}
	var entries []Entry
	if err := json.Unmarshal(idxData, &entries); err != nil {
		return nil, fmt.Errorf("malformed index.json in %q: %v", path, err)
	}

	set := &Set{}
	for _, e := range entries {
		img, err := loadEntry(files, e)
		if err != nil {
			return nil, fmt.Errorf("loading entry %q: %v", e.Name, err)
		}
		switch {
		case e.FileType == Kernal && e.Region == RegionPAL:
			set.KernalPAL = img
		case e.FileType == Kernal && (e.Region == RegionNTSC || e.Region == RegionDefault):
			set.KernalNTSC = img
		case e.FileType == Basic && e.Region == RegionDefault:
			set.BasicDefault = img
		case e.FileType == Character && e.Region == RegionDefault:
			set.CharacterDefault = img
		case e.FileType == Cartridge:
			c := img
			set.Cartridge = &c
		}
	}

	if len(set.KernalPAL.Data) == 0 {
		return nil, fmt.Errorf("ROM package %q is missing a PAL kernal", path)
	}
	if len(set.KernalNTSC.Data) == 0 {
		return nil, fmt.Errorf("ROM package %q is missing an NTSC kernal", path)
	}
	if len(set.BasicDefault.Data) == 0 {
		return nil, fmt.Errorf("ROM package %q is missing a default BASIC ROM", path)
	}
	if len(set.CharacterDefault.Data) == 0 {
		return nil, fmt.Errorf("ROM package %q is missing a default character ROM", path)
	}
	return set, nil
}

// loadEntry concatenates an entry's ordered file parts and parses the
// leading two-byte load address off the front of the combined image.
func loadEntry(files map[string]*zip.File, e Entry) (Image, error) {
	var payload []uint8
	for i, name := range e.FileNames {
		f, ok := files[name]
		if !ok {
			return Image{}, fmt.Errorf("part %d (%q) not found in archive", i, name)
		}
		data, err := readZipFile(f)
		if err != nil {
			return Image{}, fmt.Errorf("reading part %q: %v", name, err)
		}
		payload = append(payload, data...)
	}
	return parseImage(payload)
}

// parseImage splits off the two-byte little-endian load address that
// prefixes every VIC-20 ROM/cartridge binary.
func parseImage(data []uint8) (Image, error) {
	if len(data) < 2 {
		return Image{}, fmt.Errorf("image too short to hold a load address: %d bytes", len(data))
	}
	return Image{
		LoadAddress: uint16(data[0]) | uint16(data[1])<<8,
		Data:        data[2:],
	}, nil
}

func readZipFile(f *zip.File) ([]uint8, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ioutil.ReadAll(io.Reader(rc))
}
