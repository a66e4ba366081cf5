package bomdiff

func qty(v float64) *float64 { return &v }

func prio(v int) *int { return &v }

// engineBaselineA is a small turbofan tree used across the tests.
func engineBaselineA() *PartNode {
	return &PartNode{
		ID: "ENGINE", Name: "Engine", PartNumber: "ENG-100", Revision: "A",
		Children: []*PartNode{
			{
				ID: "FAN", Name: "Fan Module", PartNumber: "FAN-200", Revision: "B",
				Children: []*PartNode{
					{ID: "FAN-BLADE", Name: "Fan Blade", PartNumber: "FB-1", Quantity: qty(18), UnitOfMeasure: "EA"},
					{ID: "FAN-DISK", Name: "Fan Disk", PartNumber: "FD-1", LifecycleStage: "production"},
				},
			},
			{
				ID: "LPC", Name: "LP Compressor", PartNumber: "LPC-300",
				Children: []*PartNode{
					{ID: "LPC-STG1", Name: "Stage 1", PartNumber: "LPC-S1"},
					{ID: "LPC-STG2", Name: "Stage 2", PartNumber: "LPC-S2"},
				},
			},
		},
	}
}

// engineBaselineB changes the fan blade and adds a third compressor stage.
func engineBaselineB() *PartNode {
	root := engineBaselineA()
	blade := root.Children[0].Children[0]
	blade.Quantity = qty(20)
	blade.UnitOfMeasure = "PCS"
	lpc := root.Children[1]
	lpc.Children = append(lpc.Children, &PartNode{ID: "LPC-STG3", Name: "Stage 3", PartNumber: "LPC-S3"})
	return root
}

func rowByID(rows []DiffRow, id string) (DiffRow, bool) {
	for _, r := range rows {
		if r.ID == id {
			return r, true
		}
	}
	return DiffRow{}, false
}

func idsOf(rows []DiffRow) []string {
	ids := make([]string, len(rows))
	for i, r := range rows {
		ids[i] = r.ID
	}
	return ids
}
