package domain

type VehicleModel struct {
	Name  string `json:"name"`
	Plate string `json:"plate"`
}
