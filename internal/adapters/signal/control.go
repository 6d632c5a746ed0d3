package signal

func (ctl *Controller) handlePing(conn *wsConn) {
	resp := struct {
		Type string `json:"type"`
	}{
		Type: "pong",
	}
	ctl.reply(conn, resp)
}
