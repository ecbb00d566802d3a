package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/NexusAndromeda/route-optimizer-backend-sub000/internal/domain"
)

// Postgres-backed implementation of the AddressRepository port.
type PgAddressRepository struct{ DB *sql.DB }

func NewPgAddressRepository(db *sql.DB) *PgAddressRepository {
	return &PgAddressRepository{DB: db}
}

const addressColumns = `
	id,
	company_id,
	official_label,
	street_name,
	street_number,
	postcode,
	city,
	lon,
	lat,
	door_code,
	has_mailbox_access,
	driver_notes,
	last_updated_by,
	updated_at
`

func scanAddress(row *sql.Row) (*domain.ResolvedAddress, error) {
	var a domain.ResolvedAddress
	var doorCode, driverNotes, lastUpdatedBy sql.NullString
	err := row.Scan(
		&a.ID,
		&a.CompanyID,
		&a.OfficialLabel,
		&a.StreetName,
		&a.StreetNumber,
		&a.Postcode,
		&a.City,
		&a.Coordinates.Lon,
		&a.Coordinates.Lat,
		&doorCode,
		&a.HasMailboxAccess,
		&driverNotes,
		&lastUpdatedBy,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.DoorCode = doorCode.String
	a.DriverNotes = driverNotes.String
	a.LastUpdatedBy = lastUpdatedBy.String
	return &a, nil
}

// Exact match on official_label, case-insensitive, scoped to a company.
func (r *PgAddressRepository) FindExact(ctx context.Context, companyID, label string) (*domain.ResolvedAddress, error) {
	if r.DB == nil {
		return nil, errors.New("pg address repository: DB is nil")
	}

	query := `
	SELECT ` + addressColumns + `
	FROM addresses
	WHERE company_id = $1 AND lower(official_label) = lower($2);
	`
	addr, err := scanAddress(r.DB.QueryRowContext(ctx, query, companyID, label))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find exact address: %w", err)
	}
	return addr, nil
}

// Partial match on street name and number; newest row wins when several match.
func (r *PgAddressRepository) FindPartial(ctx context.Context, companyID, streetName, streetNumber string) (*domain.ResolvedAddress, error) {
	if r.DB == nil {
		return nil, errors.New("pg address repository: DB is nil")
	}

	query := `
	SELECT ` + addressColumns + `
	FROM addresses
	WHERE company_id = $1
	  AND lower(street_name) = lower($2)
	  AND street_number = $3
	ORDER BY updated_at DESC
	LIMIT 1;
	`
	addr, err := scanAddress(r.DB.QueryRowContext(ctx, query, companyID, streetName, streetNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find partial address: %w", err)
	}
	return addr, nil
}

// Insert a new address, or refresh updated_at when the label already exists.
func (r *PgAddressRepository) Upsert(ctx context.Context, addr *domain.ResolvedAddress) (*domain.ResolvedAddress, error) {
	if r.DB == nil {
		return nil, errors.New("pg address repository: DB is nil")
	}
	if addr.OfficialLabel == "" {
		return nil, errors.New("upsert address: official label must be non-empty")
	}

	id := addr.ID
	if id == "" {
		id = uuid.NewString()
	}

	query := `
	INSERT INTO addresses (
		id, company_id, official_label, street_name, street_number,
		postcode, city, lon, lat, updated_at
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
	ON CONFLICT (company_id, official_label)
	DO UPDATE SET updated_at = NOW()
	RETURNING ` + addressColumns + `;
	`
	saved, err := scanAddress(r.DB.QueryRowContext(ctx, query,
		id,
		addr.CompanyID,
		addr.OfficialLabel,
		addr.StreetName,
		addr.StreetNumber,
		addr.Postcode,
		addr.City,
		addr.Coordinates.Lon,
		addr.Coordinates.Lat,
	))
	if err != nil {
		return nil, fmt.Errorf("upsert address %q: %w", addr.OfficialLabel, err)
	}
	return saved, nil
}

// Mutate only the driver annotation fields of an existing address.
func (r *PgAddressRepository) UpdateDriverData(ctx context.Context, addressID, doorCode string, hasMailboxAccess bool, notes, updatedBy string) (*domain.ResolvedAddress, error) {
	if r.DB == nil {
		return nil, errors.New("pg address repository: DB is nil")
	}

	query := `
	UPDATE addresses
	SET door_code = $2,
	    has_mailbox_access = $3,
	    driver_notes = $4,
	    last_updated_by = $5,
	    updated_at = NOW()
	WHERE id = $1
	RETURNING ` + addressColumns + `;
	`
	updated, err := scanAddress(r.DB.QueryRowContext(ctx, query,
		addressID, doorCode, hasMailboxAccess, notes, updatedBy))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("update driver data: address %s not found", addressID)
	}
	if err != nil {
		return nil, fmt.Errorf("update driver data: %w", err)
	}
	return updated, nil
}
