package services

import "errors"

var (
	ErrValidation           = errors.New("missing required fields")
	ErrDuplicateCertificate = errors.New("certificate already exists for this student and class")
	ErrNoActiveTemplate     = errors.New("no active template found for this class")
	ErrCertificateNotFound  = errors.New("certificate not found")
	ErrJobNotFound          = errors.New("bulk job not found")
	ErrTemplateNotFound     = errors.New("template not found")
	ErrCertificateRevoked   = errors.New("certificate is revoked")
	ErrNoFailedRows         = errors.New("no unresolved failed rows for this job")
)
