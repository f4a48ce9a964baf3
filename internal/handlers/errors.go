package handlers

import "github.com/laneboard/laneboard/internal/apperr"

// Detail strings for the not-found family. Kept in one place so the
// wording stays stable across handlers.
func notFoundSwimLane() *apperr.Error { return apperr.NotFound("Swim lane not found.") }

func notFoundTask() *apperr.Error { return apperr.NotFound("Task not found.") }

func notFoundUserRole() *apperr.Error { return apperr.NotFound("User role not found") }

func notFoundTemplate() *apperr.Error {
	return apperr.NotFound("Template not found or you don't have access to it.")
}
