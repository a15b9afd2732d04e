package models

// UserCreateRequest is the admin payload for creating an account.
type UserCreateRequest struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Bio       string `json:"bio"`
	Role      Role   `json:"role"`
}

// UserPatchRequest: частичное обновление, nil означает "не менять".
type UserPatchRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Bio       *string `json:"bio"`
	Role      *Role   `json:"role"`
}

type UserListResponse struct {
	Count   int     `json:"count"`
	Results []*User `json:"results"`
}
