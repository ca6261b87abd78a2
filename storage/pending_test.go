/*
 * Copyright 2024 FuriLabs
 *
 * This file is part of mmsd4ofono.
 *
 * mmsd4ofono is free software; you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation; version 3.
 *
 * mmsd4ofono is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package storage

import (
	"os"

	. "launchpad.net/gocheck"
)

type PendingTestSuite struct{}

var _ = Suite(&PendingTestSuite{})

func (s *PendingTestSuite) SetUpTest(c *C) {
	os.Setenv("XDG_DATA_HOME", c.MkDir())
}

func (s *PendingTestSuite) TestSaveListDelete(c *C) {
	pn := &PendingNotification{
		UUID:            "token1",
		TransactionId:   "m04BKksim0",
		ContentLocation: "http://mmsc.example/x",
		Sender:          "+543515924906/TYPE=PLMN",
		Enqueued:        100,
		Info:            map[string]string{"SentTime": "2024-05-01T10:00:00Z"},
	}
	c.Assert(SavePending(pn), IsNil)

	pending := ListPending()
	c.Assert(pending, HasLen, 1)
	c.Check(pending[0], DeepEquals, pn)

	c.Assert(DeletePending("token1"), IsNil)
	c.Check(ListPending(), HasLen, 0)
}

func (s *PendingTestSuite) TestListOrderedByEnqueueTime(c *C) {
	c.Assert(SavePending(&PendingNotification{UUID: "late", Enqueued: 300}), IsNil)
	c.Assert(SavePending(&PendingNotification{UUID: "early", Enqueued: 100}), IsNil)
	c.Assert(SavePending(&PendingNotification{UUID: "middle", Enqueued: 200}), IsNil)

	pending := ListPending()
	c.Assert(pending, HasLen, 3)
	c.Check(pending[0].UUID, Equals, "early")
	c.Check(pending[1].UUID, Equals, "middle")
	c.Check(pending[2].UUID, Equals, "late")
}

func (s *PendingTestSuite) TestDeleteMissingIsAnError(c *C) {
	c.Check(DeletePending("absent"), NotNil)
}
