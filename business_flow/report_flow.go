package businessflow

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/helpinghand/donor-admin/app/dto"
	"github.com/helpinghand/donor-admin/models"
	"github.com/helpinghand/donor-admin/repository"
	"github.com/helpinghand/donor-admin/utils"
)

// ReportFlow produces Excel exports of donor and donation data
type ReportFlow interface {
	ExportDonors(ctx context.Context, request *dto.DonorReportRequest, metadata *ClientMetadata) (string, []byte, error)
	ExportDonations(ctx context.Context, request *dto.DonationReportRequest, metadata *ClientMetadata) (string, []byte, error)
}

// ReportFlowImpl implements the report business flow
type ReportFlowImpl struct {
	donorRepo    repository.DonorRepository
	donationRepo repository.DonationRepository
	auditRepo    repository.AuditLogRepository
}

// NewReportFlow creates a new report flow instance
func NewReportFlow(
	donorRepo repository.DonorRepository,
	donationRepo repository.DonationRepository,
	auditRepo repository.AuditLogRepository,
) ReportFlow {
	return &ReportFlowImpl{
		donorRepo:    donorRepo,
		donationRepo: donationRepo,
		auditRepo:    auditRepo,
	}
}

// ExportDonors writes the filtered donor list into a single-sheet workbook
func (rf *ReportFlowImpl) ExportDonors(ctx context.Context, request *dto.DonorReportRequest, metadata *ClientMetadata) (string, []byte, error) {
	filter := models.DonorFilter{
		LastContactAfter:  request.LastContactAfter,
		LastContactBefore: request.LastContactBefore,
	}
	if request.HelpType != nil {
		ht := models.HelpType(*request.HelpType)
		filter.HelpType = &ht
	}

	donors, err := rf.donorRepo.ByFilter(ctx, filter, "name ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("FETCH_DONORS_FAILED", "Failed to fetch donors for export", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "Donors"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"id", "uuid", "name", "email", "phone", "help_type", "last_contact", "created_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for ri, donor := range donors {
		phone := ""
		if donor.Phone != nil {
			phone = *donor.Phone
		}
		lastContact := ""
		if donor.LastContact != nil {
			lastContact = donor.LastContact.Format(time.RFC3339)
		}
		record := []string{
			strconv.FormatUint(uint64(donor.ID), 10),
			donor.UUID.String(),
			donor.Name,
			donor.Email,
			phone,
			donor.HelpType.String(),
			lastContact,
			donor.CreatedAt.Format(time.RFC3339),
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	filename := fmt.Sprintf("donors_%s.xlsx", utils.UTCNow().Format("2006-01-02"))
	msg := fmt.Sprintf("Donor report exported: %d rows", len(donors))
	_ = recordAudit(ctx, rf.auditRepo, nil, models.AuditActionReportExported, msg, true, nil, metadata)

	return filename, buf.Bytes(), nil
}

// ExportDonations writes the filtered donations into a workbook with a data
// sheet and a per-currency totals sheet
func (rf *ReportFlowImpl) ExportDonations(ctx context.Context, request *dto.DonationReportRequest, metadata *ClientMetadata) (string, []byte, error) {
	filter := models.DonationFilter{
		Currency:   normalizedCurrency(request.Currency),
		DateAfter:  request.DateAfter,
		DateBefore: request.DateBefore,
	}

	donations, err := rf.donationRepo.ByFilter(ctx, filter, "date ASC", 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("FETCH_DONATIONS_FAILED", "Failed to fetch donations for export", err)
	}

	totals, err := rf.donationRepo.SumAmountByCurrency(ctx, filter)
	if err != nil {
		return "", nil, NewBusinessError("FETCH_DONATIONS_FAILED", "Failed to compute donation totals", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "Donations"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"id", "uuid", "donor_name", "donor_email", "amount", "currency", "date", "payment_method", "notes"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for ri, donation := range donations {
		donorName := ""
		donorEmail := ""
		if donation.Donor != nil {
			donorName = donation.Donor.Name
			donorEmail = donation.Donor.Email
		}
		paymentMethod := ""
		if donation.PaymentMethod != nil {
			paymentMethod = *donation.PaymentMethod
		}
		notes := ""
		if donation.Notes != nil {
			notes = *donation.Notes
		}
		record := []string{
			strconv.FormatUint(uint64(donation.ID), 10),
			donation.UUID.String(),
			donorName,
			donorEmail,
			strconv.FormatFloat(donation.Amount, 'f', 2, 64),
			donation.Currency,
			donation.Date.Format(time.RFC3339),
			paymentMethod,
			notes,
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	totalsSheet := "Totals"
	_, _ = xl.NewSheet(totalsSheet)
	totalsHeader := []string{"currency", "total"}
	_ = xl.SetSheetRow(totalsSheet, "A1", &totalsHeader)
	ri := 0
	for currency, total := range totals {
		record := []string{currency, strconv.FormatFloat(total, 'f', 2, 64)}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(totalsSheet, cellRef, &record)
		ri++
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	filename := fmt.Sprintf("donations_%s.xlsx", utils.UTCNow().Format("2006-01-02"))
	msg := fmt.Sprintf("Donation report exported: %d rows", len(donations))
	_ = recordAudit(ctx, rf.auditRepo, nil, models.AuditActionReportExported, msg, true, nil, metadata)

	return filename, buf.Bytes(), nil
}
