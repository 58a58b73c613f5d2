package org

import "github.com/ehr/hospitalcrm/pkg/pagination"

// Department maps to the departments table.
type Department struct {
	ID       int64   `db:"department_id" json:"department_id"`
	Name     string  `db:"name" json:"name"`
	Phone    *string `db:"phone" json:"phone"`
	Location *string `db:"location" json:"location"`
}

// Provider maps to the providers table, joined with its department name.
type Provider struct {
	ID             int64   `db:"provider_id" json:"provider_id"`
	DepartmentID   *int64  `db:"department_id" json:"department_id"`
	DepartmentName *string `db:"department_name" json:"department_name"`
	NPI            *string `db:"npi" json:"npi"`
	FirstName      string  `db:"first_name" json:"first_name"`
	LastName       string  `db:"last_name" json:"last_name"`
	Specialty      *string `db:"specialty" json:"specialty"`
	Phone          *string `db:"phone" json:"phone"`
	Email          *string `db:"email" json:"email"`
	Active         bool    `db:"active" json:"active"`
}

type ProviderFilter struct {
	DepartmentID int64
	ActiveOnly   bool
	Page         pagination.Params
}
