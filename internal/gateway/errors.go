package gateway

import "studio/internal/services"

func invalid(message string) error {
	return services.NewFailure(services.ErrValidation, message)
}

func notFound(message string) error {
	return services.NewFailure(services.ErrNotFound, message)
}
