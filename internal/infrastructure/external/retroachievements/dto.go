package retroachievements

// gameDTO mirrors the fields of the API_GetGame.php response this service
// cares about. The upstream payload carries many more fields; they are
// ignored on decode.
type gameDTO struct {
	ID          int    `json:"ID"`
	Title       string `json:"Title"`
	ConsoleID   int    `json:"ConsoleID"`
	ConsoleName string `json:"ConsoleName"`
	ImageIcon   string `json:"ImageIcon"`
	ImageBoxArt string `json:"ImageBoxArt"`
	Publisher   string `json:"Publisher"`
	Developer   string `json:"Developer"`
	Genre       string `json:"Genre"`
	Released    string `json:"Released"`
}
