package users

// Avatar is one of the preset profile pictures.
type Avatar string

const (
	AvatarBear   Avatar = "bear"
	AvatarCat    Avatar = "cat"
	AvatarDog    Avatar = "dog"
	AvatarFox    Avatar = "fox"
	AvatarOwl    Avatar = "owl"
	AvatarPanda  Avatar = "panda"
	AvatarRabbit Avatar = "rabbit"
	AvatarTurtle Avatar = "turtle"
)

type AccountProgress struct {
	SignUpComplete      bool `firestore:"signUpComplete" json:"signUpComplete"`
	EmailVerified       bool `firestore:"emailVerified" json:"emailVerified"`
	DailyChannelCreated bool `firestore:"dailyChannelCreated" json:"dailyChannelCreated"`
}

type User struct {
	ID                  string          `firestore:"id" json:"id"`
	FirstName           string          `firestore:"firstName" json:"firstName"`
	LastName            string          `firestore:"lastName" json:"lastName"`
	Email               string          `firestore:"email" json:"email"`
	FunFact             string          `firestore:"funFact" json:"funFact"`
	Avatar              Avatar          `firestore:"avatar" json:"avatar"`
	JoinedAt            int64           `firestore:"joinedAt" json:"joinedAt"`
	AccountProgress     AccountProgress `firestore:"accountProgress" json:"accountProgress"`
	CustomChannelCount  int             `firestore:"customChannelCount" json:"customChannelCount"`
	MarkedForDeletionAt *int64          `firestore:"markedForDeletionAt" json:"markedForDeletionAt"`
}

func (u User) Key() string { return u.ID }

// DisplayName is the name shown on cards, falling back to the email.
func (u User) DisplayName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	default:
		return u.Email
	}
}

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type CompleteProfileRequest struct {
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
	FunFact   string `json:"funFact" validate:"max=280"`
	Avatar    Avatar `json:"avatar" validate:"required,oneof=bear cat dog fox owl panda rabbit turtle"`
}
