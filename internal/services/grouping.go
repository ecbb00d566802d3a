package services

import (
	"context"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/domain"
	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/platform/obs"
)

// AddressReference is the slice of the address cache the grouping engine
// needs: reference-data matching for trusted upstream geocodes.
type AddressReference interface {
	FindBySearchKey(streetName, postcode string) (*domain.ResolvedAddress, bool)
	CreateIfAbsent(ctx context.Context, companyID, streetName, streetNumber, postcode, city string, coords domain.Coordinates) (*domain.ResolvedAddress, error)
}

// Grouper turns a raw upstream package feed into the deduplicated
// per-address view drivers work from.
type Grouper struct {
	addresses AddressReference
}

func NewGrouper(addresses AddressReference) *Grouper {
	return &Grouper{addresses: addresses}
}

// bucket accumulates processed packages sharing one address label.
type bucket struct {
	packages []domain.ProcessedPackage
}

// ProcessTour resolves each feed package against reference data, buckets by
// address label, and returns the finalized grouped view. Packages with an
// untrusted upstream geocode are flagged problematic, shown under their
// original address, and never matched against reference data.
func (g *Grouper) ProcessTour(ctx context.Context, companyID string, feed []domain.FeedPackage) (_ *domain.GroupedPackages, err error) {
	defer obs.Time(ctx, "grouper.ProcessTour")(&err)

	buckets := make(map[string]*bucket)
	order := make([]string, 0, len(feed))

	for i := range feed {
		p, perr := g.process(ctx, companyID, &feed[i])
		if perr != nil {
			return nil, perr
		}

		key := p.OfficialLabel
		b, ok := buckets[key]
		if !ok {
			b = &bucket{}
			buckets[key] = b
			order = append(order, key)
		}
		b.packages = append(b.packages, p)
	}

	grouped := domain.NewGroupedPackages()
	for _, key := range order {
		b := buckets[key]
		if len(b.packages) == 1 {
			grouped.AddSingle(toSingle(b.packages[0]))
			continue
		}
		grouped.AddGroup(toGroup(key, b.packages))
	}

	grouped.Finalize()
	log.Printf("tour processed: company=%s packages=%d singles=%d groups=%d",
		companyID, grouped.TotalPackages, len(grouped.Singles), len(grouped.Groups))
	return grouped, nil
}

// process maps one feed record to a processed package, matching it against
// reference data when the upstream geocode is trustworthy.
func (g *Grouper) process(ctx context.Context, companyID string, fp *domain.FeedPackage) (domain.ProcessedPackage, error) {
	p := domain.ProcessedPackage{
		ID:                 uuid.NewString(),
		Tracking:           fp.TrackingID,
		CustomerName:       strings.TrimSpace(fp.CustomerName),
		PhoneNumber:        fp.CustomerPhone,
		CustomerIndication: fp.CustomerIndication,
		Status:             fp.Status,
	}

	trusted := fp.GeocodeQuality == domain.GeocodeQualityGood &&
		fp.Latitude != 0 && fp.Longitude != 0 &&
		fp.GeocodeStreetName != ""

	if !trusted {
		// Problematic packages must never inherit another address's driver
		// notes through a false reference match.
		p.IsProblematic = true
		p.OfficialLabel = strings.ToUpper(strings.TrimSpace(fp.OriginalAddress()))
		p.Coordinates = domain.Coordinates{Lon: fp.Longitude, Lat: fp.Latitude}
		return p, nil
	}

	coords := domain.Coordinates{Lon: fp.Longitude, Lat: fp.Latitude}

	addr, ok := g.addresses.FindBySearchKey(fp.GeocodeStreetName, fp.GeocodePostcode)
	if !ok {
		created, err := g.addresses.CreateIfAbsent(ctx, companyID,
			fp.GeocodeStreetName, fp.GeocodeStreetNumber, fp.GeocodePostcode, "", coords)
		if err != nil {
			return domain.ProcessedPackage{}, err
		}
		addr = created
	}

	p.OfficialLabel = addr.OfficialLabel
	p.AddressID = addr.ID
	p.Coordinates = addr.Coordinates
	p.MailboxAccess = addr.HasMailboxAccess
	p.DriverNotes = addr.DriverNotes
	return p, nil
}

func toSingle(p domain.ProcessedPackage) domain.SinglePackage {
	return domain.SinglePackage{
		ID:                 p.ID,
		Tracking:           p.Tracking,
		CustomerName:       p.CustomerName,
		PhoneNumber:        p.PhoneNumber,
		CustomerIndication: p.CustomerIndication,
		OfficialLabel:      p.OfficialLabel,
		AddressID:          p.AddressID,
		Coordinates:        p.Coordinates,
		MailboxAccess:      p.MailboxAccess,
		DriverNotes:        p.DriverNotes,
		IsProblematic:      p.IsProblematic,
		Status:             p.Status,
	}
}

// toGroup folds co-located packages into per-customer sub-groups.
func toGroup(label string, pkgs []domain.ProcessedPackage) domain.DeliveryGroup {
	dg := domain.DeliveryGroup{
		ID:            uuid.NewString(),
		OfficialLabel: label,
		Coordinates:   pkgs[0].Coordinates,
		MailboxAccess: pkgs[0].MailboxAccess,
		DriverNotes:   pkgs[0].DriverNotes,
		TotalPackages: len(pkgs),
	}

	byCustomer := make(map[string]*domain.CustomerGroup)
	names := make([]string, 0, len(pkgs))
	for _, p := range pkgs {
		cg, ok := byCustomer[p.CustomerName]
		if !ok {
			cg = &domain.CustomerGroup{
				CustomerName: p.CustomerName,
				PhoneNumber:  p.PhoneNumber,
			}
			byCustomer[p.CustomerName] = cg
			names = append(names, p.CustomerName)
		}
		cg.Packages = append(cg.Packages, domain.PackageInfo{
			ID:                 p.ID,
			Tracking:           p.Tracking,
			CustomerIndication: p.CustomerIndication,
		})
	}

	for _, name := range names {
		dg.Customers = append(dg.Customers, *byCustomer[name])
	}
	return dg
}
