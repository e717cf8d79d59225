package memory

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cespare/xxhash"
	"github.com/valerio/go-dmgcore/dmg/addr"
	"github.com/valerio/go-dmgcore/dmg/bit"
)

const (
	entryPointAddress      = 0x100
	logoAddress            = 0x104
	titleAddress           = 0x134
	titleLength            = 15
	newLicenseCodeAddress  = 0x144
	sgbFlagAddress         = 0x146
	cartridgeTypeAddress   = 0x147
	romSizeAddress         = 0x148
	ramSizeAddress         = 0x149
	destinationCodeAddress = 0x14A
	oldLicenseCodeAddress  = 0x14B
	versionNumberAddress   = 0x14C
	headerChecksumAddress  = 0x14D
	globalChecksumAddress  = 0x14E

	// smallest image holding the whole header, checksums included
	headerEnd = 0x150

	// old licensee value that redirects to the two character new licensee code
	useNewLicensee = 0x33
)

var (
	// ErrROMTooSmall is returned when an image does not even contain a full header.
	ErrROMTooSmall = errors.New("rom image too small for cartridge header")
	// ErrHeaderChecksum is returned when the header checksum byte does not match the header contents.
	ErrHeaderChecksum = errors.New("cartridge header checksum mismatch")
)

// Header is the decoded cartridge header (0x0100-0x014F).
type Header struct {
	EntryPoint      [4]byte
	Logo            [0x30]byte
	Title           string
	LicenseeCode    string
	Licensee        string
	SGB             bool
	Type            Type
	ROMSize         int
	RAMSizeCode     uint8
	DestinationCode uint8
	Version         uint8
	HeaderChecksum  uint8
	GlobalChecksum  uint16
}

func (h Header) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Title:           %s\n", h.Title)
	fmt.Fprintf(&sb, "Licensee:        %s (%s)\n", h.Licensee, h.LicenseeCode)
	fmt.Fprintf(&sb, "Type:            %s (0x%02X)\n", h.Type, uint8(h.Type))
	fmt.Fprintf(&sb, "ROM size:        %d KiB\n", h.ROMSize/1024)
	fmt.Fprintf(&sb, "RAM size code:   0x%02X\n", h.RAMSizeCode)
	fmt.Fprintf(&sb, "Destination:     0x%02X\n", h.DestinationCode)
	fmt.Fprintf(&sb, "Version:         %d\n", h.Version)
	fmt.Fprintf(&sb, "Header checksum: 0x%02X\n", h.HeaderChecksum)
	fmt.Fprintf(&sb, "Global checksum: 0x%04X", h.GlobalChecksum)
	return sb.String()
}

// Cartridge holds a ROM image. Only the fixed 32 KiB mapping is supported,
// writes to the cartridge are accepted and dropped.
type Cartridge struct {
	data        []byte
	header      Header
	loaded      bool
	fingerprint uint64
}

// NewCartridge creates an empty cartridge, useful only for debugging purposes.
// Equivalent to an empty slot: it is not considered loaded.
func NewCartridge() *Cartridge {
	return &Cartridge{
		data: make([]byte, int(addr.ROMEnd)+1),
	}
}

// NewCartridgeWithData initializes a new Cartridge from a ROM image, decoding
// and validating its header. The image is copied.
func NewCartridgeWithData(bytes []byte) (*Cartridge, error) {
	if len(bytes) < headerEnd {
		return nil, fmt.Errorf("loading cartridge (%d bytes): %w", len(bytes), ErrROMTooSmall)
	}

	computed := HeaderChecksum(bytes)
	if computed != bytes[headerChecksumAddress] {
		return nil, fmt.Errorf("loading cartridge: header says 0x%02X, computed 0x%02X: %w",
			bytes[headerChecksumAddress], computed, ErrHeaderChecksum)
	}

	cart := &Cartridge{
		data:        make([]byte, len(bytes)),
		header:      parseHeader(bytes),
		loaded:      true,
		fingerprint: xxhash.Sum64(bytes),
	}
	copy(cart.data, bytes)

	slog.Info("cartridge loaded",
		"title", cart.header.Title,
		"type", cart.header.Type.String(),
		"rom_kb", cart.header.ROMSize/1024,
		"fingerprint", fmt.Sprintf("%016x", cart.fingerprint),
	)

	return cart, nil
}

// HeaderChecksum computes the header checksum over 0x0134-0x014C, as the
// boot ROM does. data must be at least 0x014D bytes long.
func HeaderChecksum(data []byte) uint8 {
	var checksum uint8
	for i := titleAddress; i < headerChecksumAddress; i++ {
		checksum = checksum - data[i] - 1
	}
	return checksum
}

// FixHeaderChecksum stores the computed header checksum into the image, the
// way rgbfix does for freshly assembled ROMs.
func FixHeaderChecksum(data []byte) {
	data[headerChecksumAddress] = HeaderChecksum(data)
}

func parseHeader(data []byte) Header {
	h := Header{
		Title:           cleanGameboyTitle(data[titleAddress : titleAddress+titleLength]),
		SGB:             data[sgbFlagAddress] == 0x03,
		Type:            Type(data[cartridgeTypeAddress]),
		ROMSize:         (32 * 1024) << (data[romSizeAddress] & 0x0F),
		RAMSizeCode:     data[ramSizeAddress],
		DestinationCode: data[destinationCodeAddress],
		Version:         data[versionNumberAddress],
		HeaderChecksum:  data[headerChecksumAddress],
		GlobalChecksum:  bit.Combine(data[globalChecksumAddress], data[globalChecksumAddress+1]),
	}
	copy(h.EntryPoint[:], data[entryPointAddress:logoAddress])
	copy(h.Logo[:], data[logoAddress:titleAddress])

	if old := data[oldLicenseCodeAddress]; old == useNewLicensee {
		h.LicenseeCode = string(data[newLicenseCodeAddress : newLicenseCodeAddress+2])
		h.Licensee = newLicenseeName(h.LicenseeCode)
	} else {
		h.LicenseeCode = fmt.Sprintf("%02X", old)
		h.Licensee = oldLicenseeName(old)
	}

	return h
}

// Header returns the decoded header. Zero valued for an empty cartridge.
func (c *Cartridge) Header() Header {
	return c.header
}

// Loaded reports whether the cartridge holds a validated ROM image.
func (c *Cartridge) Loaded() bool {
	return c.loaded
}

// Fingerprint returns the xxhash64 digest of the ROM image.
func (c *Cartridge) Fingerprint() uint64 {
	return c.fingerprint
}

// Size returns the size in bytes of the ROM image.
func (c *Cartridge) Size() int {
	return len(c.data)
}

// Read returns the byte at the given address. ROM reads past the end of the
// image return 0xFF (open bus), the external RAM window always reads 0.
func (c *Cartridge) Read(address uint16) byte {
	if address > addr.ROMEnd {
		return 0x00
	}
	if int(address) >= len(c.data) {
		return 0xFF
	}
	return c.data[address]
}

// Write is accepted and dropped: without a memory bank controller there is
// nothing for ROM or external RAM writes to act on.
func (c *Cartridge) Write(address uint16, value byte) {}
