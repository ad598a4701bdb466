package draft

// DeliverSnapshot feeds a snapshot straight into the gate, bypassing
// the store subscription. Test hook.
func (c *Client) DeliverSnapshot(sess *Session) {
	c.handleSnapshot(sess)
}
