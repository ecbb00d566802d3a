package domain

import "sort"

// PackageInfo is one parcel entry inside a customer group.
type PackageInfo struct {
	ID                 string `json:"id"`
	Tracking           string `json:"tracking"`
	CustomerIndication string `json:"customer_indication"`
}

// CustomerGroup holds every package addressed to one customer at a shared address.
type CustomerGroup struct {
	CustomerName string        `json:"customer_name"`
	PhoneNumber  string        `json:"phone_number"`
	Packages     []PackageInfo `json:"packages"`
}

// SinglePackage is a package whose address has no co-located siblings.
type SinglePackage struct {
	ID                 string      `json:"id"`
	Tracking           string      `json:"tracking"`
	CustomerName       string      `json:"customer_name"`
	PhoneNumber        string      `json:"phone_number"`
	CustomerIndication string      `json:"customer_indication"`
	OfficialLabel      string      `json:"official_label"`
	AddressID          string      `json:"address_id,omitempty"`
	Coordinates        Coordinates `json:"coordinates"`
	MailboxAccess      bool        `json:"mailbox_access"`
	DriverNotes        string      `json:"driver_notes"`
	IsProblematic      bool        `json:"is_problematic"`
	Status             string      `json:"status"`
}

// DeliveryGroup bundles all packages sharing one physical address.
type DeliveryGroup struct {
	ID            string          `json:"id"`
	OfficialLabel string          `json:"official_label"`
	Coordinates   Coordinates     `json:"coordinates"`
	MailboxAccess bool            `json:"mailbox_access"`
	DriverNotes   string          `json:"driver_notes"`
	Customers     []CustomerGroup `json:"customers"`
	TotalPackages int             `json:"total_packages"`
}

// GroupedPackages is the deduplicated per-address view of a tour's packages.
// Every processed package appears in exactly one bucket, and after Finalize
// the ordering is total so repeated runs on unchanged input are byte-identical.
type GroupedPackages struct {
	Singles       []SinglePackage `json:"singles"`
	Groups        []DeliveryGroup `json:"groups"`
	TotalPackages int             `json:"total_packages"`
}

func NewGroupedPackages() *GroupedPackages {
	return &GroupedPackages{
		Singles: []SinglePackage{},
		Groups:  []DeliveryGroup{},
	}
}

func (g *GroupedPackages) AddSingle(s SinglePackage) {
	g.Singles = append(g.Singles, s)
	g.TotalPackages++
}

func (g *GroupedPackages) AddGroup(dg DeliveryGroup) {
	g.Groups = append(g.Groups, dg)
	g.TotalPackages += dg.TotalPackages
}

// Finalize sorts the whole structure into its canonical order: singles by
// tracking id, groups by address label, customers by name, and packages within
// a customer by tracking id. Checksum comparisons between sync rounds rely on
// this order being stable.
func (g *GroupedPackages) Finalize() {
	sort.SliceStable(g.Singles, func(i, j int) bool {
		return g.Singles[i].Tracking < g.Singles[j].Tracking
	})

	sort.SliceStable(g.Groups, func(i, j int) bool {
		return g.Groups[i].OfficialLabel < g.Groups[j].OfficialLabel
	})

	for gi := range g.Groups {
		grp := &g.Groups[gi]
		sort.SliceStable(grp.Customers, func(i, j int) bool {
			return grp.Customers[i].CustomerName < grp.Customers[j].CustomerName
		})
		for ci := range grp.Customers {
			pkgs := grp.Customers[ci].Packages
			sort.SliceStable(pkgs, func(i, j int) bool {
				return pkgs[i].Tracking < pkgs[j].Tracking
			})
		}
	}
}
