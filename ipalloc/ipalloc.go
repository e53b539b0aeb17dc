// Package ipalloc implements deterministic IP assignment for every
// host, either a single flat subnet or one subnet per AS
// when a topology graph supplies AS-aware node addressing.
package ipalloc

import (
	"net"
	"sort"

	"github.com/pkg/errors"
)

// DefaultFlatSubnet is the subnet NewFlat uses when it is given an
// empty CIDR.
const DefaultFlatSubnet = "10.0.0.0/16"

// NodeAddress is the address/AS information the topology engine
// supplies for AS-aware allocation. An empty Address means the
// allocator must derive one; a non-empty Address is authoritative.
type NodeAddress struct {
	NodeID  string
	AS      string
	Address string
}

// Allocator assigns a stable IP to every agent id, iterating its
// inputs in sorted order so that allocation never depends on map
// iteration order.
type Allocator struct {
	flat     *net.IPNet
	flatNext uint32

	asSubnets map[string]*net.IPNet
	asNext    map[string]uint32

	assigned map[string]string
}

// NewFlat returns an Allocator handing out sequential addresses from a
// single flat subnet, used when the network has no AS structure.
func NewFlat(cidr string) (*Allocator, error) {
	if cidr == "" {
		cidr = DefaultFlatSubnet
	}
	_, ipNet, err := net.ParseCIDR(cidr)
	if err != nil {
		return nil, errors.Wrapf(err, "ipalloc: invalid subnet %q", cidr)
	}
	return &Allocator{flat: ipNet, flatNext: 1, assigned: map[string]string{}}, nil
}

// NewASAware returns an Allocator that derives one subnet per AS from
// the topology's node set. Nodes are consumed in sorted NodeID order
// so repeated runs derive identical per-AS prefixes regardless of
// input ordering.
func NewASAware(nodes []NodeAddress) (*Allocator, error) {
	sorted := append([]NodeAddress(nil), nodes...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].NodeID < sorted[j].NodeID })

	a := &Allocator{
		asSubnets: map[string]*net.IPNet{},
		asNext:    map[string]uint32{},
		assigned:  map[string]string{},
	}

	seenAS := map[string]bool{}
	octet := 0
	for _, n := range sorted {
		if n.AS == "" {
			return nil, errors.Errorf("ipalloc: node %s has no AS in AS-aware mode", n.NodeID)
		}
		if seenAS[n.AS] {
			continue
		}
		seenAS[n.AS] = true

		if octet > 254 {
			return nil, errors.New("ipalloc: too many ASes for a /24-per-AS /8 supernet")
		}
		cidr := net.IPv4(10, byte(octet), 0, 0).String() + "/24"
		_, ipNet, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, err
		}
		a.asSubnets[n.AS] = ipNet
		a.asNext[n.AS] = 1
		octet++
	}
	return a, nil
}

// Allocate returns the stable IP for agentID. A non-empty
// declaredAddress takes priority and is returned as-is, whatever as
// and the allocation mode are; otherwise the allocator hands out the
// next address in the flat subnet or in as's subnet.
func (a *Allocator) Allocate(agentID, as, declaredAddress string) (string, error) {
	if ip, ok := a.assigned[agentID]; ok {
		return ip, nil
	}

	if declaredAddress != "" {
		a.assigned[agentID] = declaredAddress
		return declaredAddress, nil
	}

	if a.flat != nil {
		ip, err := nthAddress(a.flat, a.flatNext)
		if err != nil {
			return "", err
		}
		a.flatNext++
		a.assigned[agentID] = ip
		return ip, nil
	}

	subnet, ok := a.asSubnets[as]
	if !ok {
		return "", errors.Errorf("ipalloc: unknown AS %q", as)
	}
	ip, err := nthAddress(subnet, a.asNext[as])
	if err != nil {
		return "", err
	}
	a.asNext[as]++
	a.assigned[agentID] = ip
	return ip, nil
}

// nthAddress returns the nth host address (1-based, skipping the
// network address) within subnet.
func nthAddress(subnet *net.IPNet, n uint32) (string, error) {
	ip4 := subnet.IP.To4()
	if ip4 == nil {
		return "", errors.New("ipalloc: only IPv4 subnets are supported")
	}
	base := uint32(ip4[0])<<24 | uint32(ip4[1])<<16 | uint32(ip4[2])<<8 | uint32(ip4[3])
	candidate := base + n

	ones, bits := subnet.Mask.Size()
	size := uint32(1) << uint(bits-ones)
	if n == 0 || n >= size {
		return "", errors.Errorf("ipalloc: subnet %s exhausted", subnet.String())
	}

	result := net.IPv4(byte(candidate>>24), byte(candidate>>16), byte(candidate>>8), byte(candidate))
	return result.String(), nil
}
