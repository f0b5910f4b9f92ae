package domain

// Account est une référence en lecture seule vers un utilisateur.
// Le cycle de vie (inscription, mot de passe) appartient à l'identity-service.
type Account struct {
	ID          string
	Username    string
	DisplayName string
}
