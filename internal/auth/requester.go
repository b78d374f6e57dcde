package auth

type Role string

const (
	RoleTrainer Role = "trainer"
	RoleTrainee Role = "trainee"
)

func (r Role) Valid() bool {
	return r == RoleTrainer || r == RoleTrainee
}

// Requester is the caller identity handed to every booking operation.
type Requester struct {
	ID   string
	Role Role
}

func (r Requester) IsTrainer() bool {
	return r.Role == RoleTrainer
}

func (r Requester) IsTrainee() bool {
	return r.Role == RoleTrainee
}
