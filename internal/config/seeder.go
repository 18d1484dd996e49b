package config

import (
	"log"

	"loansuite/internal/adapters/persistence/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SeedMasterData seeds initial master data
func SeedMasterData(db *gorm.DB) error {
	if err := seedLoanTypes(db); err != nil {
		return err
	}

	log.Println("✅ Master data seeded successfully")
	return nil
}

func seedLoanTypes(db *gorm.DB) error {
	loanTypes := []models.LoanType{
		{
			Code:            "PERSONAL",
			Name:            "Personal Loan",
			Description:     "Unsecured personal loan for general purposes",
			InterestRate:    decimal.RequireFromString("12.50"),
			MinAmount:       decimal.RequireFromString("10000.00"),
			MaxAmount:       decimal.RequireFromString("1500000.00"),
			MaxTenureMonths: 60,
			LateFeePercent:  decimal.RequireFromString("2.00"),
			IsActive:        true,
		},
		{
			Code:            "HOME",
			Name:            "Home Loan",
			Description:     "Secured housing loan with property collateral",
			InterestRate:    decimal.RequireFromString("8.50"),
			MinAmount:       decimal.RequireFromString("100000.00"),
			MaxAmount:       decimal.RequireFromString("50000000.00"),
			MaxTenureMonths: 360,
			LateFeePercent:  decimal.RequireFromString("1.50"),
			IsActive:        true,
		},
		{
			Code:            "VEHICLE",
			Name:            "Vehicle Loan",
			Description:     "Loan for new and used vehicle purchase",
			InterestRate:    decimal.RequireFromString("10.00"),
			MinAmount:       decimal.RequireFromString("50000.00"),
			MaxAmount:       decimal.RequireFromString("5000000.00"),
			MaxTenureMonths: 84,
			LateFeePercent:  decimal.RequireFromString("2.00"),
			IsActive:        true,
		},
		{
			Code:            "EDUCATION",
			Name:            "Education Loan",
			Description:     "Loan for tuition and study-related expenses",
			InterestRate:    decimal.RequireFromString("9.25"),
			MinAmount:       decimal.RequireFromString("25000.00"),
			MaxAmount:       decimal.RequireFromString("10000000.00"),
			MaxTenureMonths: 120,
			LateFeePercent:  decimal.RequireFromString("1.00"),
			IsActive:        true,
		},
	}

	for _, lt := range loanTypes {
		var existing models.LoanType
		if err := db.Where("code = ?", lt.Code).First(&existing).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				if err := db.Create(&lt).Error; err != nil {
					return err
				}
				log.Printf("   Created loan_type: %s", lt.Name)
			}
		}
	}
	return nil
}
