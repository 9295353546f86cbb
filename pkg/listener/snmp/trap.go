package snmp

import (
	"fmt"
	"net"
	"strings"

	"github.com/gosnmp/gosnmp"

	"github.com/mutt-telemetry/mutt/pkg/models"
)

const (
	// snmpTrapOIDPrefix is snmpTrapOID.0 minus the instance suffix; the
	// value of that binding is the actual trap OID.
	snmpTrapOIDPrefix = ".1.3.6.1.6.3.1.1.4.1"

	// standardTrapOIDBase is the RFC 3584 base for v1 generic traps.
	standardTrapOIDBase = ".1.3.6.1.6.3.1.1.5"
)

// ParsePacket converts a decoded trap into a telemetry message. Varbinds
// become a flat name-to-rendered-value map; the trap OID comes from the
// snmpTrapOID.0 binding, or is synthesized for v1 PDUs per RFC 3584 §3.1.
// Traps without a recognizable trap OID keep oid "unknown".
func ParsePacket(pkt *gosnmp.SnmpPacket, addr *net.UDPAddr) (*models.Message, error) {
	if pkt == nil {
		return nil, fmt.Errorf("nil trap packet")
	}

	sourceIP := ""
	if addr != nil {
		sourceIP = addr.IP.String()
	}
	// v1 traps carry an explicit agent address; prefer it when present.
	if pkt.Version == gosnmp.Version1 && pkt.AgentAddress != "" {
		sourceIP = pkt.AgentAddress
	}

	varbinds := make(map[string]string, len(pkt.Variables))
	oid := "unknown"
	for _, v := range pkt.Variables {
		name := normalizeOID(v.Name)
		value := renderValue(v)
		varbinds[name] = value
		if strings.HasPrefix(name, snmpTrapOIDPrefix) {
			oid = normalizeOID(value)
		}
	}

	if pkt.Version == gosnmp.Version1 {
		oid = synthesizeV1TrapOID(pkt)
	}

	payload := fmt.Sprintf("SNMP Trap from %s", sourceIP)
	return models.NewTrapMessage(sourceIP, payload, oid, varbinds, versionString(pkt.Version)), nil
}

// synthesizeV1TrapOID maps a v1 trap PDU onto a v2 trap OID per RFC 3584
// §3.1: generic traps 0-5 use the standard prefix, generic 6 appends
// .0.<specific> to the enterprise OID.
func synthesizeV1TrapOID(pkt *gosnmp.SnmpPacket) string {
	if pkt.GenericTrap >= 0 && pkt.GenericTrap < 6 {
		return fmt.Sprintf("%s.%d", standardTrapOIDBase, pkt.GenericTrap+1)
	}
	enterprise := strings.TrimSuffix(normalizeOID(pkt.Enterprise), ".")
	return fmt.Sprintf("%s.0.%d", enterprise, pkt.SpecificTrap)
}

func versionString(v gosnmp.SnmpVersion) string {
	switch v {
	case gosnmp.Version1:
		return "v1"
	case gosnmp.Version2c:
		return "v2c"
	case gosnmp.Version3:
		return "v3"
	default:
		return "v2c"
	}
}

// renderValue turns a varbind value into its text form. Octet strings
// render as-is when printable and as hex otherwise; OIDs are normalized;
// numeric types render in decimal.
func renderValue(pdu gosnmp.SnmpPDU) string {
	switch pdu.Type {
	case gosnmp.OctetString:
		if b, ok := pdu.Value.([]byte); ok {
			if isPrintable(b) {
				return string(b)
			}
			return fmt.Sprintf("%x", b)
		}
		return fmt.Sprintf("%v", pdu.Value)
	case gosnmp.ObjectIdentifier:
		return normalizeOID(fmt.Sprintf("%v", pdu.Value))
	case gosnmp.IPAddress:
		return fmt.Sprintf("%v", pdu.Value)
	case gosnmp.Integer, gosnmp.Counter32, gosnmp.Gauge32, gosnmp.TimeTicks, gosnmp.Uinteger32, gosnmp.Counter64:
		return gosnmp.ToBigInt(pdu.Value).String()
	default:
		return fmt.Sprintf("%v", pdu.Value)
	}
}

// normalizeOID ensures a leading dot and no trailing dot.
func normalizeOID(oid string) string {
	oid = strings.TrimSpace(oid)
	if oid == "" {
		return ""
	}
	if !strings.HasPrefix(oid, ".") {
		oid = "." + oid
	}
	return strings.TrimSuffix(oid, ".")
}

func isPrintable(b []byte) bool {
	for _, c := range b {
		if c < 0x20 && c != '\t' && c != '\n' && c != '\r' {
			return false
		}
		if c > 0x7e {
			return false
		}
	}
	return true
}
