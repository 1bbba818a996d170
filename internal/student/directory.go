package student

import (
	"context"

	"schoolchain/internal/certificate"
)

// Directory adapts the student service to the lookup interface the
// certificate orchestrator consumes.
type Directory struct {
	service *Service
}

func NewDirectory(service *Service) *Directory {
	return &Directory{service: service}
}

// FindStudentDetail implements certificate.StudentDirectory.
func (d *Directory) FindStudentDetail(ctx context.Context, id int) (*certificate.Student, error) {
	student, err := d.service.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &certificate.Student{
		ID:            student.ID,
		Name:          student.Name,
		Email:         student.Email,
		WalletAddress: student.WalletAddress,
	}, nil
}
