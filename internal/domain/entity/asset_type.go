package entity

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// AssetType clasifica el activo físico. El conjunto es cerrado.
type AssetType string

// Tipos de activo soportados.
const (
	AssetTypePhone      AssetType = "phone"
	AssetTypeTablet     AssetType = "tablet"
	AssetTypeLaptop     AssetType = "laptop"
	AssetTypeDesktop    AssetType = "desktop"
	AssetTypeMonitor    AssetType = "monitor"
	AssetTypePrinter    AssetType = "printer"
	AssetTypeDock       AssetType = "dock"
	AssetTypePeripheral AssetType = "peripheral"
)

// assetTypePrefixes prefijo del número de activo por tipo (LAP-00042).
var assetTypePrefixes = map[AssetType]string{
	AssetTypePhone:      "PHN",
	AssetTypeTablet:     "TAB",
	AssetTypeLaptop:     "LAP",
	AssetTypeDesktop:    "DSK",
	AssetTypeMonitor:    "MON",
	AssetTypePrinter:    "PRN",
	AssetTypeDock:       "DCK",
	AssetTypePeripheral: "PER",
}

// AssetTypes devuelve todos los tipos en orden estable.
func AssetTypes() []AssetType {
	return []AssetType{
		AssetTypePhone, AssetTypeTablet, AssetTypeLaptop, AssetTypeDesktop,
		AssetTypeMonitor, AssetTypePrinter, AssetTypeDock, AssetTypePeripheral,
	}
}

// ParseAssetType interpreta un tipo sin distinguir mayúsculas. ok=false si no existe.
func ParseAssetType(s string) (AssetType, bool) {
	t := AssetType(strings.ToLower(strings.TrimSpace(s)))
	_, ok := assetTypePrefixes[t]
	return t, ok
}

// Valid indica si el tipo pertenece al catálogo.
func (t AssetType) Valid() bool {
	_, ok := assetTypePrefixes[t]
	return ok
}

// Prefix devuelve el prefijo del número de activo ("" si el tipo no existe).
func (t AssetType) Prefix() string {
	return assetTypePrefixes[t]
}

// assetNumberDigits ancho mínimo de la parte numérica.
const assetNumberDigits = 5

var assetNumberRe = regexp.MustCompile(`^([A-Z]{3})-(\d{5,})$`)

// FormatAssetNumber arma el número de activo a partir del tipo y la secuencia: LAP-00042.
func FormatAssetNumber(t AssetType, seq int64) string {
	return fmt.Sprintf("%s-%0*d", t.Prefix(), assetNumberDigits, seq)
}

// NormalizeAssetNumber pasa a mayúsculas y recorta espacios.
func NormalizeAssetNumber(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidAssetNumber verifica el formato <PREFIJO>-NNNNN y que el prefijo corresponda al tipo.
func ValidAssetNumber(t AssetType, number string) bool {
	m := assetNumberRe.FindStringSubmatch(number)
	if m == nil || m[1] != t.Prefix() {
		return false
	}
	n, err := strconv.ParseInt(m[2], 10, 64)
	return err == nil && n > 0
}
