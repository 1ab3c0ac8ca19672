package usecase

// Context keys for error values
const (
	UserIDKey      = "user_id"
	AadObjectIDKey = "user_aad_object_id"
	RunIDKey       = "run_id"
)
